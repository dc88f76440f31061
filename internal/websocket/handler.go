package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS поднимает WebSocket-соединение для ленты обменов.
// Токен передаётся в ?token=, так как браузер не ставит заголовки при апгрейде.
func (m *Manager) ServeWS(jwtService *utils.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.log.WithError(err).Warn("ошибка апгрейда WebSocket")
			return
		}

		NewClient(userID, conn, m).Start()
	}
}
