package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/middleware"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/shop"
	"github.com/ilmhub/coinhub/internal/store"
)

type AuthHandler struct {
	client       *ilmhub.Client
	sessionStore *store.SessionStore
	registry     *shop.Registry
	sessionTTL   time.Duration
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewAuthHandler(client *ilmhub.Client, ss *store.SessionStore, registry *shop.Registry, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		client:       client,
		sessionStore: ss,
		registry:     registry,
		sessionTTL:   sessionTTL,
		validate:     validator.New(),
		logger:       logger,
	}
}

// loginRequest takes a student code or a staff email in Identifier. It is
// passed upstream unchanged apart from trimming.
type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Password   string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID int64      `json:"userId"`
	Role   model.Role `json:"role"`
	Panel  string     `json:"panel"`
}

// Login forwards credentials upstream and opens a local session holding the
// sealed bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "identifier and password are required")
		return
	}

	resp, err := h.client.Login(r.Context(), ilmhub.Credentials{Identifier: req.Identifier, Password: req.Password})
	if err != nil {
		var apiErr *ilmhub.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, h.logger, "login", err)
		return
	}
	if resp.Token == "" {
		h.logger.Error("login returned no token", "identifier", req.Identifier)
		writeMessage(w, http.StatusBadGateway, "login failed, please try again")
		return
	}

	expiresAt := time.Now().Add(h.sessionTTL)
	userID := resp.UserID
	role, hasRole := model.Role(0), false
	if resp.Role != nil {
		role, hasRole = *resp.Role, true
	}
	if claims, err := ilmhub.ParseClaims(resp.Token); err != nil {
		h.logger.Debug("bearer is not a readable JWT", "error", err)
	} else {
		if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expiresAt) {
			expiresAt = claims.ExpiresAt
		}
		if userID == 0 {
			userID, _ = strconv.ParseInt(claims.Subject, 10, 64)
		}
		if !hasRole && claims.HasRole {
			role, hasRole = claims.Role, true
		}
	}
	if userID == 0 || !hasRole {
		me, err := h.client.WithToken(resp.Token).Me(r.Context())
		if err != nil {
			writeError(w, h.logger, "login: me", err)
			return
		}
		if userID == 0 {
			userID = me.ID
		}
		if !hasRole {
			role, hasRole = me.Role, true
		}
	}
	if userID == 0 || !role.Valid() {
		h.logger.Error("login returned no usable identity", "identifier", req.Identifier, "user_id", userID, "role", int(role))
		writeMessage(w, http.StatusBadGateway, "login failed, please try again")
		return
	}

	sess, err := h.sessionStore.Create(resp.Token, userID, role, expiresAt)
	if err != nil {
		h.logger.Error("create session", "user_id", userID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	h.logger.Info("login", "user_id", userID, "role", role.String(), "session_id", sess.ID)
	writeJSON(w, http.StatusOK, loginResponse{UserID: userID, Role: role, Panel: auth.PanelFor(role)})
}

// Logout ends the upstream session best-effort and always clears the local one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		if err := h.client.WithToken(ac.Session.Bearer).Logout(ctx); err != nil {
			h.logger.Warn("upstream logout", "session_id", ac.SessionID, "error", err)
		}
		cancel()
		h.registry.Drop(ac.SessionID)
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "session_id", ac.SessionID, "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User  *model.User `json:"user"`
	Panel string      `json:"panel"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return
	}
	u, err := h.client.WithToken(ac.Session.Bearer).Me(r.Context())
	if err != nil {
		writeError(w, h.logger, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: u, Panel: auth.PanelFor(ac.Role)})
}
