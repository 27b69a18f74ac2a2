package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/ilmhub/coinhub/internal/auth"
)

// HandleWebSocket upgrades authenticated requests to WebSocket and runs them
// as Hub clients of the caller's session. onConnect runs once the client is
// registered, typically to push the current snapshot.
func HandleWebSocket(hub *Hub, originPatterns []string, onConnect func(r *http.Request, ac auth.AuthContext), logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "session_id", ac.SessionID, "error", err)
			return
		}

		client := NewClient(hub, conn, ac.SessionID)
		client.Run(r.Context(), func() {
			if onConnect != nil {
				onConnect(r, ac)
			}
		})
	}
}
