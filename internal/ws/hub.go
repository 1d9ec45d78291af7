package ws

import (
	"encoding/json"
	"sync"

	"bill-mart/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

// Event is the JSON payload pushed to dashboards.
type Event struct {
	Type    string         `json:"type"`
	Action  string         `json:"action"`
	Data    map[string]any `json:"data,omitempty"`
	User    *Actor         `json:"user,omitempty"`
	Message string         `json:"message,omitempty"`
}

type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const TypeStockUpdate = "stock_update"

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			logger.Get().WithField("module", "ws").Info("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish hands ev to the broadcast loop without blocking the caller.
// A nil hub drops the event.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.LogError("ws", "Publish", "Error encoding event", ev.Action, err)
		return
	}
	go func() {
		h.Broadcast <- msg
	}()
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
