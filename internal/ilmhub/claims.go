package ilmhub

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ilmhub/coinhub/internal/model"
)

// roleClaimKeys are checked in order; the backend has issued both forms.
var roleClaimKeys = []string{
	"role",
	"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
}

// Claims is the subset of the bearer token this service reads.
type Claims struct {
	Subject   string
	Role      model.Role
	HasRole   bool
	ExpiresAt time.Time
}

// ParseClaims decodes a JWT bearer token without verifying its signature.
// The backend verifies tokens; locally the claims only bound session lifetime
// and fill in a missing role.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	for _, key := range roleClaimKeys {
		if v, ok := mc[key]; ok {
			if r, ok := roleFromClaim(v); ok {
				c.Role, c.HasRole = r, true
				break
			}
		}
	}
	return c, nil
}

func roleFromClaim(v any) (model.Role, bool) {
	switch t := v.(type) {
	case float64:
		r := model.Role(int(t))
		return r, r.Valid()
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			r := model.Role(n)
			return r, r.Valid()
		}
		for _, r := range []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent} {
			if strings.EqualFold(r.String(), t) {
				return r, true
			}
		}
	}
	return 0, false
}
