// Package room routes broadcast events to the live connections of a project.
// Rooms are pure routing tables: created lazily on first join, torn down when
// the last connection leaves, rebuilt from reconnects after a restart.
package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Conn is the subset of websocket connection methods the hub needs.
// Satisfied by *websocket.Conn; tests substitute fakes.
type Conn interface {
	Write(ctx context.Context, msgType websocket.MessageType, data []byte) error
	Close(status websocket.StatusCode, reason string) error
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
}

// Hub tracks room membership and fans events out to members.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join adds a connection to the broadcast group for projectID, creating the
// group if it doesn't exist yet.
func (h *Hub) Join(projectID string, conn Conn) *Client {
	c := &Client{
		conn:      conn,
		projectID: projectID,
		send:      make(chan []byte, 64),
	}
	h.mu.Lock()
	group, ok := h.rooms[projectID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[projectID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Leave removes the client from its group; the group disappears with its
// last member.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	if group, ok := h.rooms[c.projectID]; ok {
		if _, joined := group[c]; joined {
			delete(group, c)
			close(c.send)
		}
		if len(group) == 0 {
			delete(h.rooms, c.projectID)
		}
	}
	h.mu.Unlock()
}

// BroadcastExcept delivers payload to every member of the project's group
// other than except. Delivery order per client matches call order.
func (h *Hub) BroadcastExcept(projectID string, payload []byte, except *Client) {
	h.broadcast(projectID, payload, except)
}

// BroadcastAll delivers payload to every member of the project's group.
func (h *Hub) BroadcastAll(projectID string, payload []byte) {
	h.broadcast(projectID, payload, nil)
}

func (h *Hub) broadcast(projectID string, payload []byte, except *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[projectID] {
		if c == except {
			continue
		}
		if !c.enqueue(payload) {
			// Slow consumer: drop the connection rather than stall the room.
			go h.Leave(c)
		}
	}
}

// MemberCount reports the number of live connections in a project's group.
func (h *Hub) MemberCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Client is one live connection's membership handle.
type Client struct {
	conn      Conn
	projectID string
	send      chan []byte
}

// ProjectID returns the project this client joined.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Send enqueues a payload for this client only.
func (c *Client) Send(payload []byte) {
	c.enqueue(payload)
}

// SendJSON marshals v and enqueues it for this client only.
func (c *Client) SendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(payload []byte) (ok bool) {
	defer func() {
		// Sending on a channel closed by Leave loses the race; treat as dropped.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// WriteLoop drains the send queue onto the connection until the queue closes
// or the context ends.
func (c *Client) WriteLoop(ctx context.Context) error {
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Read reads one frame from the underlying connection.
func (c *Client) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

// Close closes the underlying connection.
func (c *Client) Close(status websocket.StatusCode, reason string) {
	_ = c.conn.Close(status, reason)
}
