package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"isabet-pos/models"
	"isabet-pos/utils"
)

// Frame types pushed to every connection after a mutation. Snapshots carry
// the full collection; clients replace their local copy wholesale.
const (
	EventTablesUpdate   = "tables_update"
	EventProductsUpdate = "products_update"
)

// Message is the wire envelope for everything the server sends.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub holds every live terminal connection and fans state snapshots out to
// all of them, authenticated or not.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func New() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register wraps a fresh websocket connection and adds it to the fan-out set.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	utils.InfoLogger.Printf("client connected (%d live)", h.Count())
	return c
}

// Unregister removes a connection from the fan-out set and closes it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
	utils.InfoLogger.Printf("client disconnected (%d live)", h.Count())
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a message to every live connection. Send errors are logged
// and skipped; the liveness monitor will reap the dead connection.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.Send(msg); err != nil {
			utils.ErrorLogger.Printf("broadcast to client failed: %v", err)
		}
	}
}

func (h *Hub) BroadcastTables(tables []*models.Table) {
	h.Broadcast(Message{
		Type:    EventTablesUpdate,
		Payload: map[string]interface{}{"tables": tables},
	})
}

func (h *Hub) BroadcastProducts(products []models.Product) {
	h.Broadcast(Message{
		Type:    EventProductsUpdate,
		Payload: map[string]interface{}{"products": products},
	})
}

// StartPinger runs the liveness monitor: every interval each connection is
// pinged, and one that never answered the previous ping is terminated and
// dropped from the fan-out set. Returns a stop function.
func (h *Hub) StartPinger(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				h.sweep()
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func (h *Hub) sweep() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if c.missedPong() {
			utils.InfoLogger.Printf("terminating unresponsive client")
			h.Unregister(c)
			continue
		}
		if err := c.ping(); err != nil {
			utils.ErrorLogger.Printf("ping failed: %v", err)
			h.Unregister(c)
		}
	}
}
