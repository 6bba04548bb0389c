// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Handler consumes frames read from client connections.
type Handler interface {
	Handle(from string, raw []byte)
	Leave(from string)
}

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
}

// Hub tracks live websocket clients and delivers outbound messages to them.
// Send and Broadcast never block: each client has a bounded queue drained by
// its own writer goroutine, and a full queue drops the message.
type Hub struct {
	auth    *Authenticator
	origins []string
	log     *logrus.Entry

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub returns an empty hub. A nil auth accepts anonymous clients.
func NewHub(auth *Authenticator, origins []string, log *logrus.Entry) *Hub {
	if auth == nil {
		auth = NewAuthenticator("")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		auth:    auth,
		origins: origins,
		log:     log.WithField("component", "ws"),
		clients: make(map[string]*client),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues msg for the client with the given id.
func (h *Hub) Send(to string, msg models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshal outbound message")
		return
	}
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok {
		h.log.WithFields(logrus.Fields{"participant": to, "command": msg.Command}).Debug("send to unknown client")
		return
	}
	h.enqueue(c, data, msg.Command)
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshal outbound message")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, data, msg.Command)
	}
}

func (h *Hub) enqueue(c *client, data []byte, command string) {
	select {
	case c.send <- data:
	default:
		h.log.WithFields(logrus.Fields{"participant": c.id, "command": command}).Warn("send queue full, dropping message")
	}
}

// Endpoint returns the websocket handler. Every frame read is passed to
// hd; a closed connection is reported through hd.Leave.
func (h *Hub) Endpoint(hd Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.auth.Identify(r)
		if err != nil {
			h.log.WithError(err).Info("handshake rejected")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		c := &client{id: id, send: make(chan []byte, sendBuffer)}
		if !h.register(c) {
			http.Error(w, "already connected", http.StatusConflict)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
		if err != nil {
			h.unregister(c)
			h.log.WithError(err).Warn("websocket accept failed")
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		h.mu.Lock()
		c.conn, c.cancel = conn, cancel
		h.mu.Unlock()
		log := h.log.WithField("participant", id)
		log.Info("client connected")

		go h.writePump(ctx, c, log)
		h.readLoop(ctx, c, hd, log)

		cancel()
		h.unregister(c)
		hd.Leave(id)
		conn.Close(websocket.StatusNormalClosure, "")
		log.Info("client disconnected")
	}
}

// CloseAll drops every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.conn != nil {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.clients[c.id]; dup {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
}

func (h *Hub) readLoop(ctx context.Context, c *client, hd Handler, log *logrus.Entry) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("read ended")
			}
			return
		}
		hd.Handle(c.id, data)
	}
}

func (h *Hub) writePump(ctx context.Context, c *client, log *logrus.Entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.WithError(err).Info("write failed, closing connection")
				c.cancel()
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}
