package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Outbound messages buffered per client.
	sendBuffer = 64
)

// Message types
const (
	TypeSubscribe   = "SUBSCRIBE"
	TypeUnsubscribe = "UNSUBSCRIBE"
	TypeSnapshot    = "SNAPSHOT"
	TypeError       = "ERROR"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Request is sent by clients to attach or detach a collection
type Request struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
}

// Push is sent by the server. Data is null when the collection is empty.
type Push struct {
	Type       string                     `json:"type"`
	Collection string                     `json:"collection"`
	Data       map[string]json.RawMessage `json:"data"`
	Error      string                     `json:"error,omitempty"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	ID  string
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// closed on shutdown; senders select on it instead of send being closed
	done     chan struct{}
	doneOnce sync.Once

	mu   sync.Mutex
	subs map[string]*store.Subscription
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   "web_" + uuid.New().String(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		subs: make(map[string]*store.Subscription),
	}
}

// readPump pumps requests from the websocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("read failed", "client", c.ID, "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			c.push(Push{Type: TypeError, Error: "malformed message"})
			continue
		}
		switch req.Type {
		case TypeSubscribe:
			c.subscribe(req.Collection)
		case TypeUnsubscribe:
			c.unsubscribe(req.Collection)
		default:
			c.push(Push{Type: TypeError, Collection: req.Collection, Error: "unknown message type"})
		}
	}
}

// subscribe attaches one store subscription per collection
func (c *Client) subscribe(collection string) {
	if !models.IsPublic(collection) {
		c.push(Push{Type: TypeError, Collection: collection, Error: "unknown collection"})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[collection]; ok {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}

	sub, err := c.hub.store.Subscribe(context.Background(), collection)
	if err != nil {
		c.hub.log.Errorw("subscribe failed", "client", c.ID, "collection", collection, "error", err)
		go c.push(Push{Type: TypeError, Collection: collection, Error: "subscription failed"})
		return
	}
	c.subs[collection] = sub
	go c.forward(sub)
}

func (c *Client) unsubscribe(collection string) {
	c.mu.Lock()
	sub, ok := c.subs[collection]
	delete(c.subs, collection)
	c.mu.Unlock()
	if ok {
		sub.Close()
	}
}

// forward relays snapshots until the subscription closes
func (c *Client) forward(sub *store.Subscription) {
	for snap := range sub.C {
		var data map[string]json.RawMessage
		if !snap.Empty() {
			data = snap.Records
		}
		if !c.push(Push{Type: TypeSnapshot, Collection: snap.Collection, Data: data}) {
			return
		}
	}
}

// push queues a message, blocking while the buffer is full.
// It reports false once the client is shut down.
func (c *Client) push(p Push) bool {
	msg, err := json.Marshal(p)
	if err != nil {
		c.hub.log.Errorw("marshal push", "client", c.ID, "error", err)
		return true
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

// writePump pumps messages from the send buffer to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// shutdown closes every store subscription. Safe to call more than once.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		subs := c.subs
		c.subs = make(map[string]*store.Subscription)
		c.mu.Unlock()
		for _, sub := range subs {
			sub.Close()
		}
	})
}

func (c *Client) subscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warnw("upgrade failed", "error", err)
		return
	}
	client := newClient(hub, conn)
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
