package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API already allows any origin via the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 64
)

// wsClient is one connected feed subscriber. Each client has its own
// writer goroutine so a stalled socket never holds up anyone else.
type wsClient struct {
	conn *websocket.Conn
	send chan string
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case line := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Drain client frames until disconnect; the feed is one-way.
func (c *wsClient) readLoop() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub broadcasts sourcing activity lines to every connected websocket
// client. It implements the engine's event sink.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Publish fans one activity line out to all clients. Each client gets
// the line on its buffered send channel; a client whose buffer is full
// is dropped instead of blocking the engine.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- line:
		default:
			client.close()
			delete(h.clients, client)
		}
	}
}

// ServeWS upgrades the request and registers the client for the activity
// feed.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan string, wsSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writeLoop()
	go func() {
		client.readLoop()
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}()
}
