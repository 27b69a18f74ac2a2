package ilmhub

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ilmhub/coinhub/internal/model"
)

const rewardItemPrefix = "/api/reward-items"

type RewardItemInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Cost        int    `json:"cost" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

func (c *Client) ListRewardItems(ctx context.Context) ([]model.RewardItem, error) {
	var items []model.RewardItem
	if err := c.do(ctx, http.MethodGet, rewardItemPrefix, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetRewardItem(ctx context.Context, id int64) (*model.RewardItem, error) {
	var it model.RewardItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", rewardItemPrefix, id), nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) CreateRewardItem(ctx context.Context, in RewardItemInput) (*model.RewardItem, error) {
	var it model.RewardItem
	if err := c.do(ctx, http.MethodPost, rewardItemPrefix, in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) DeleteRewardItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", rewardItemPrefix, id), nil, nil)
}
