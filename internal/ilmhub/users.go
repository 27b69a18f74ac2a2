package ilmhub

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ilmhub/coinhub/internal/model"
)

const userPrefix = "/api/users"

func (c *Client) ListTeachers(ctx context.Context) ([]model.User, error) {
	var list []model.User
	if err := c.do(ctx, http.MethodGet, userPrefix+"/teachers", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) PromoteUser(ctx context.Context, id int64, role model.Role) error {
	body := map[string]int{"role": int(role)}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/promote", userPrefix, id), body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", userPrefix, id), nil, nil)
}
