package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"isabet-pos/models"
)

const writeWait = 10 * time.Second

// Client is one terminal connection plus the session identity bound to it by
// login or reauthenticate. A zero UserID means the connection is
// unauthenticated; broadcasts still reach it but commands are refused.
type Client struct {
	conn *websocket.Conn

	mu       sync.Mutex
	alive    bool
	userID   uint
	username string
	role     string
}

func newClient(conn *websocket.Conn) *Client {
	c := &Client{conn: conn, alive: true}
	conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.alive = true
		c.mu.Unlock()
		return nil
	})
	return c
}

// Send marshals a message and writes it to this connection only. Writes are
// serialized per connection; gorilla conns do not allow concurrent writers.
func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// missedPong reports whether the previous ping went unanswered and arms the
// flag for the next round.
func (c *Client) missedPong() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return true
	}
	c.alive = false
	return false
}

// BindUser attaches a session identity to the connection.
func (c *Client) BindUser(u models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = u.ID
	c.username = u.Username
	c.role = u.Role
}

// ClearUser drops the session identity. Idempotent.
func (c *Client) ClearUser() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = 0
	c.username = ""
	c.role = ""
}

func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID != 0
}

func (c *Client) UserID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func (c *Client) Role() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}
