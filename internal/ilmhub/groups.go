package ilmhub

import (
	"context"
	"net/http"

	"github.com/ilmhub/coinhub/internal/model"
)

const groupPrefix = "/api/groups"

func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	var list []model.Group
	if err := c.do(ctx, http.MethodGet, groupPrefix+"/get-all", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MyGroups returns the groups taught by the token's owner.
func (c *Client) MyGroups(ctx context.Context) ([]model.Group, error) {
	var list []model.Group
	if err := c.do(ctx, http.MethodGet, groupPrefix+"/my-groups", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
