package ilmhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ilmhub/coinhub/internal/model"
)

const redemptionPrefix = "/api/redemptions"

type createRedemptionRequest struct {
	StudentID    int64 `json:"studentId"`
	RewardItemID int64 `json:"rewardItemId"`
	Quantity     int   `json:"quantity"`
}

type updateStatusRequest struct {
	NewStatus int `json:"newStatus"`
}

func (c *Client) CreateRedemption(ctx context.Context, studentID, rewardItemID int64, quantity int) (*model.RedemptionRequest, error) {
	var r model.RedemptionRequest
	req := createRedemptionRequest{StudentID: studentID, RewardItemID: rewardItemID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, redemptionPrefix, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRedemptions returns every redemption; admin scope.
func (c *Client) ListRedemptions(ctx context.Context) ([]model.RedemptionRequest, error) {
	var list []model.RedemptionRequest
	if err := c.do(ctx, http.MethodGet, redemptionPrefix, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListRedemptionsByStudent(ctx context.Context, studentID int64) ([]model.RedemptionRequest, error) {
	var list []model.RedemptionRequest
	path := fmt.Sprintf("%s/students/%d", redemptionPrefix, studentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateRedemptionStatus sends the numeric status the backend expects.
func (c *Client) UpdateRedemptionStatus(ctx context.Context, id int64, status model.Status) (*model.RedemptionRequest, error) {
	var r model.RedemptionRequest
	path := fmt.Sprintf("%s/%d/status", redemptionPrefix, id)
	if err := c.do(ctx, http.MethodPut, path, updateStatusRequest{NewStatus: int(status)}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRedemption removes a redemption. Deleting one that is already gone
// succeeds, so retries are safe.
func (c *Client) DeleteRedemption(ctx context.Context, id int64) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", redemptionPrefix, id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
