package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ilmhub/coinhub/internal/auth"
	"github.com/ilmhub/coinhub/internal/handler"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/middleware"
	"github.com/ilmhub/coinhub/internal/model"
	"github.com/ilmhub/coinhub/internal/shop"
	"github.com/ilmhub/coinhub/internal/state"
	"github.com/ilmhub/coinhub/internal/store"
	ws "github.com/ilmhub/coinhub/internal/websocket"
)

// Options configures a Server beyond its required collaborators.
type Options struct {
	SessionTTL     time.Duration
	AllowedOrigins []string
	LoginLimit     int
	LoginWindow    time.Duration
}

type Server struct {
	hub            *ws.Hub
	registry       *shop.Registry
	authH          *handler.AuthHandler
	shopH          *handler.ShopHandler
	directoryH     *handler.DirectoryHandler
	usersH         *handler.UsersHandler
	sessionStore   *store.SessionStore
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	loginLimit     int
	loginWindow    time.Duration
	logger         *slog.Logger
}

func New(db *sql.DB, client *ilmhub.Client, sealer store.Sealer, opts Options, logger *slog.Logger) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 720 * time.Hour
	}
	if opts.LoginLimit <= 0 {
		opts.LoginLimit = 10
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = time.Minute
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	sessionStore := store.NewSessionStore(db, sealer)
	shopLogger := logger.With("component", "shop")

	// Each session gets its own store. Every dispatch is pushed to that
	// session's sockets only.
	registry := shop.NewRegistry(func(sess model.Session) (*shop.Service, func()) {
		st := state.NewStore()
		unsubscribe := st.Subscribe(func(snap state.Snapshot) {
			hub.SendTo(sess.ID, ws.StateMessage(snap.Version, snap))
		})
		viewer := shop.Viewer{UserID: sess.UserID, Role: sess.Role}
		svc := shop.NewService(client.WithToken(sess.Bearer), st, viewer, hub.Notifier(sess.ID), shopLogger.With("session_id", sess.ID))
		return svc, unsubscribe
	})

	return &Server{
		hub:            hub,
		registry:       registry,
		authH:          handler.NewAuthHandler(client, sessionStore, registry, opts.SessionTTL, logger.With("component", "auth")),
		shopH:          handler.NewShopHandler(registry, shopLogger),
		directoryH:     handler.NewDirectoryHandler(client, logger.With("component", "directory")),
		usersH:         handler.NewUsersHandler(client, sessionStore, registry, logger.With("component", "users")),
		sessionStore:   sessionStore,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: opts.AllowedOrigins,
		loginLimit:     opts.LoginLimit,
		loginWindow:    opts.LoginWindow,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Registry returns the per-session service registry.
func (s *Server) Registry() *shop.Registry {
	return s.registry
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler("login", s.authH.Login))
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler("register", s.usersH.Register))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
		"sockets":  s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(scope string, h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, scope, middleware.RealIP, s.loginLimit, s.loginWindow)
	return rl(h).ServeHTTP
}

func only(h http.HandlerFunc, roles ...model.Role) http.Handler {
	return middleware.RequireRole(roles...)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	const (
		admin   = model.RoleAdmin
		teacher = model.RoleTeacher
		student = model.RoleStudent
	)

	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Student panel
	mux.Handle("GET /api/shop", only(s.shopH.Shop, student))
	mux.Handle("POST /api/redemptions", only(s.shopH.CreateRedemption, student))
	mux.Handle("GET /api/redemptions/mine", only(s.shopH.ListRedemptions, student))

	// Admin panel
	mux.Handle("GET /api/redemptions", only(s.shopH.ListRedemptions, admin))
	mux.Handle("PUT /api/redemptions/{id}/status", only(s.shopH.UpdateRedemptionStatus, admin))
	mux.Handle("DELETE /api/redemptions/{id}", only(s.shopH.DeleteRedemption, admin))
	mux.Handle("POST /api/reward-items", only(s.shopH.CreateRewardItem, admin))
	mux.Handle("DELETE /api/reward-items/{id}", only(s.shopH.DeleteRewardItem, admin))
	mux.Handle("GET /api/teachers", only(s.directoryH.ListTeachers, admin))
	mux.Handle("POST /api/users/{id}/promote", middleware.RequireAdmin(http.HandlerFunc(s.usersH.PromoteUser)))
	mux.Handle("DELETE /api/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.usersH.DeleteUser)))

	// Teacher and admin
	mux.Handle("GET /api/students", only(s.directoryH.ListStudents, admin, teacher))
	mux.Handle("GET /api/students/by-code/{code}", only(s.directoryH.GetStudentByCode, admin, teacher))
	mux.Handle("POST /api/students/{id}/transactions", only(s.shopH.GiveCoins, admin, teacher))
	mux.Handle("GET /api/students/{id}/transactions", only(s.shopH.ListTransactions, admin, teacher))
	mux.Handle("GET /api/groups", only(s.directoryH.ListGroups, admin, teacher))

	// Shared
	mux.HandleFunc("GET /api/reward-items", s.shopH.ListRewardItems)
	mux.HandleFunc("GET /api/state", s.shopH.State)
	mux.HandleFunc("POST /api/state/refresh", s.shopH.RefreshState)
	mux.HandleFunc("POST /api/state/notice/dismiss", s.shopH.DismissNotice)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.pushSnapshot, s.logger.With("component", "websocket")))
}

// pushSnapshot sends a freshly connected socket its session's current state.
func (s *Server) pushSnapshot(r *http.Request, ac auth.AuthContext) {
	snap := s.registry.For(ac.Session).Store().State()
	s.hub.SendTo(ac.SessionID, ws.StateMessage(snap.Version, snap))
}
