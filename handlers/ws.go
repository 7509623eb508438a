package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"isabet-pos/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the connection and pumps inbound frames through command
// dispatch until the terminal goes away. Connections start unauthenticated;
// identity is bound by the login/reauthenticate commands on the socket.
func (h *Handler) ServeWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := h.Hub.Register(ws)
	defer h.Hub.Unregister(client)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		h.HandleMessage(client, raw)
	}
}
