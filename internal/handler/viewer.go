package handler

import (
	"net/http"
	"textwatch/internal/logger"
	hub "textwatch/internal/service/websocket"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler attaches an overlay viewer to the hub. Accepted lines
// are pushed to it as JSON; anything the viewer sends is ignored.
func ViewWebsocketHandler(hubService *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hubService.Register(connection)
		defer hubService.Unregister(connection)

		logger.Info("Viewer connected from %s", r.RemoteAddr)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
