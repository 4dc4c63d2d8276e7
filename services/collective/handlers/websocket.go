package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/velumlabs/communion/services/collective/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// HandleDebateStream upgrades the connection and registers it as a live
// observer of the debate log and agent states. The read loop exists only
// to notice disconnects; observers never send data the service acts on.
func HandleDebateStream(hub *stream.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		client := hub.Add(ws)
		defer hub.Remove(client)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Debug("stream client read closed", "error", err.Error())
				return
			}
		}
	}
}
