package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/model"
)

// DirectoryHandler passes read-only people and group lookups through to the
// backend with the caller's token. None of it is kept in session state.
type DirectoryHandler struct {
	client *ilmhub.Client
	logger *slog.Logger
}

func NewDirectoryHandler(client *ilmhub.Client, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{client: client, logger: logger}
}

func (h *DirectoryHandler) upstream(w http.ResponseWriter, r *http.Request) (*ilmhub.Client, auth.AuthContext, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return nil, ac, false
	}
	return h.client.WithToken(ac.Session.Bearer), ac, true
}

func (h *DirectoryHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.upstream(w, r)
	if !ok {
		return
	}
	list, err := c.ListStudents(r.Context())
	if err != nil {
		writeError(w, h.logger, "list students", err)
		return
	}
	if list == nil {
		list = []model.Student{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DirectoryHandler) GetStudentByCode(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.upstream(w, r)
	if !ok {
		return
	}
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeMessage(w, http.StatusBadRequest, "code is required")
		return
	}
	st, err := c.GetStudentByCode(r.Context(), code)
	if err != nil {
		writeError(w, h.logger, "get student by code", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *DirectoryHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.upstream(w, r)
	if !ok {
		return
	}
	list, err := c.ListTeachers(r.Context())
	if err != nil {
		writeError(w, h.logger, "list teachers", err)
		return
	}
	if list == nil {
		list = []model.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListGroups returns all groups for admins and the caller's own for teachers.
func (h *DirectoryHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.upstream(w, r)
	if !ok {
		return
	}
	var (
		list []model.Group
		err  error
	)
	if auth.IsAdmin(r.Context()) {
		list, err = c.ListGroups(r.Context())
	} else {
		list, err = c.MyGroups(r.Context())
	}
	if err != nil {
		writeError(w, h.logger, "list groups", err)
		return
	}
	if list == nil {
		list = []model.Group{}
	}
	writeJSON(w, http.StatusOK, list)
}
