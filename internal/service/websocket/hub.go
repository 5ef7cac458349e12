// Package websocket fans accepted lines out to connected viewers.
package websocket

import (
	"context"
	"fmt"
	"sync"

	"textwatch/internal/dto"
	"textwatch/internal/logger"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every remaining client.
func (h *HubService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

func (h *HubService) send(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// Broadcast queues message for every connected viewer.
func (h *HubService) Broadcast(ctx context.Context, message []byte) error {
	select {
	case h.broadcast <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit sends an accepted line to every viewer as JSON.
func (h *HubService) Emit(ctx context.Context, event dto.LineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode line event: %w", err)
	}
	return h.Broadcast(ctx, data)
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
