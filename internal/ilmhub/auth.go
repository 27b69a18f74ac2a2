package ilmhub

import (
	"context"
	"net/http"

	"github.com/ilmhub/coinhub/internal/model"
)

const authPrefix = "/api/auth"

// Credentials are forwarded as-is. Identifier is the student code for
// students and the email for staff.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse is the backend's answer to a login. Role is nil when the
// backend leaves it out, which must not be read as admin (0).
type LoginResponse struct {
	Token  string      `json:"token"`
	Role   *model.Role `json:"role"`
	UserID int64       `json:"userId"`
}

// RegisterRequest is the self-signup body. The backend assigns the role.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login forwards credentials and returns the backend's token and role.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, authPrefix+"/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a student account. The caller is not logged in afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, authPrefix+"/register", req, nil)
}

// Me returns the user the bearer token belongs to.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, authPrefix+"/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, authPrefix+"/logout", struct{}{}, nil)
}
