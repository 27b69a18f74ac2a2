package ilmhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ilmhub/coinhub/internal/model"
)

const studentPrefix = "/api/students"

func (c *Client) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	var s model.Student
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", studentPrefix, id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	var list []model.Student
	if err := c.do(ctx, http.MethodGet, studentPrefix, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetStudentByCode(ctx context.Context, code string) (*model.Student, error) {
	var s model.Student
	if err := c.do(ctx, http.MethodGet, studentPrefix+"/by-code/"+url.PathEscape(code), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
