package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/shop"
	"github.com/ilmhub/coinhub/internal/store"
)

// UsersHandler covers account management: public signup and the admin's
// promote and delete actions.
type UsersHandler struct {
	client       *ilmhub.Client
	sessionStore *store.SessionStore
	registry     *shop.Registry
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewUsersHandler(client *ilmhub.Client, ss *store.SessionStore, registry *shop.Registry, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		client:       client,
		sessionStore: ss,
		registry:     registry,
		validate:     validator.New(),
		logger:       logger,
	}
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// Register creates an account upstream. It does not log the caller in.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "full name, a valid email and a password of at least 6 characters are required")
		return
	}

	err := h.client.Register(r.Context(), ilmhub.RegisterRequest{FullName: req.FullName, Email: req.Email, Password: req.Password})
	if err != nil {
		var apiErr *ilmhub.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusConflict:
				writeMessage(w, http.StatusConflict, "an account with that email already exists")
				return
			case http.StatusBadRequest:
				msg := apiErr.Message
				if msg == "" {
					msg = "registration was rejected"
				}
				writeMessage(w, http.StatusUnprocessableEntity, msg)
				return
			}
		}
		writeError(w, h.logger, "register", err)
		return
	}

	h.logger.Info("registered", "email", req.Email)
	w.WriteHeader(http.StatusCreated)
}

type promoteRequest struct {
	Role *model.Role `json:"role" validate:"required"`
}

// PromoteUser changes a user's role upstream. The user's open sessions keep
// their old role until they log in again.
func (h *UsersHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req promoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil || !req.Role.Valid() {
		writeMessage(w, http.StatusUnprocessableEntity, "role must be admin, teacher or student")
		return
	}
	if id == ac.UserID {
		writeMessage(w, http.StatusUnprocessableEntity, "you cannot change your own role")
		return
	}

	if err := h.client.WithToken(ac.Session.Bearer).PromoteUser(r.Context(), id, *req.Role); err != nil {
		writeError(w, h.logger, "promote user", err)
		return
	}
	h.logger.Info("user promoted", "user_id", id, "role", req.Role.String(), "by", ac.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser removes a user upstream and ends every local session they hold.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id == ac.UserID {
		writeMessage(w, http.StatusUnprocessableEntity, "you cannot delete your own account")
		return
	}

	if err := h.client.WithToken(ac.Session.Bearer).DeleteUser(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete user", err)
		return
	}

	sessionIDs, err := h.sessionStore.DeleteByUserID(id)
	if err != nil {
		h.logger.Error("delete sessions of deleted user", "user_id", id, "error", err)
	}
	for _, sid := range sessionIDs {
		h.registry.Drop(sid)
	}
	h.logger.Info("user deleted", "user_id", id, "sessions", len(sessionIDs), "by", ac.UserID)
	w.WriteHeader(http.StatusNoContent)
}
