package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/store"
)

// SessionCookieName is the cookie holding the local session token.
const SessionCookieName = "coinhub_session"

// RequireAuth validates the session cookie and populates AuthContext. The
// API is consumed by a SPA, so failures are JSON 401s rather than redirects.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				deny(w, http.StatusUnauthorized, "not logged in")
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				deny(w, http.StatusUnauthorized, "session expired")
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				Role:      sess.Role,
				SessionID: sess.ID,
				Session:   *sess,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated users whose role is not listed.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.HasRole(r.Context(), roles...) {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
