package ws

import (
	"net/http"

	"rostra/config"
	"rostra/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeBoardWS upgrades a staff connection onto the schedule board. The
// access token rides the query string since browsers cannot set headers on
// WebSocket dials.
func UpgradeBoardWS(cfg *config.JWTConfig, board *BoardHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		client := &Client{
			UserID:      claims.UserID,
			WorkspaceID: claims.WorkspaceID,
			Send:        make(chan []byte, 256),
		}
		board.Register(client)
		defer client.Close()

		// Writer: drain the send channel onto the socket.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		// Reader: the board is push-only, so reads exist to notice closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		client.Close()
		<-done
	}
}
