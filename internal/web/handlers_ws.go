package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"matter-go-light/internal/attr"
)

// EventSnapshot is sent to each WebSocket client once, on connect, with
// every attribute in the tree.
const EventSnapshot = "snapshot"

const (
	wsBroadcastBuffer = 256
	wsClientBuffer    = 64
	wsWriteTimeout    = 10 * time.Second
)

// WSHub fans tree events out to WebSocket clients.
type WSHub struct {
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan attr.Event

	done     chan struct{}
	stopOnce sync.Once
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	endpoint atomic.Pointer[uint16] // nil: all endpoints
}

// wsFilter is the message a client sends to narrow its stream to one
// endpoint. A null endpoint clears the filter.
type wsFilter struct {
	Endpoint *uint16 `json:"endpoint"`
}

// accepts reports whether the client's filter lets event through. Events
// not tied to an endpoint always pass.
func (c *wsClient) accepts(event attr.Event) bool {
	ep := c.endpoint.Load()
	if ep == nil {
		return true
	}
	u, ok := event.Data.(attr.AttributeUpdate)
	return !ok || u.Endpoint == *ep
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub(logger *slog.Logger) *WSHub {
	return &WSHub{
		clients:    make(map[*wsClient]struct{}),
		logger:     logger,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan attr.Event, wsBroadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns after Stop.
func (h *WSHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client connected", "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client disconnected", "total", total)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("ws marshal", "type", event.Type, "err", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				if !client.accepts(event) {
					continue
				}
				select {
				case client.send <- data:
				default:
					h.drop(client)
					h.logger.Warn("ws client evicted (too slow)")
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send queue. h.mu must be held.
func (h *WSHub) drop(client *wsClient) {
	delete(h.clients, client)
	close(client.send)
}

// Clients returns the number of connected clients.
func (h *WSHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop signals the hub to shut down. Safe to call multiple times.
func (h *WSHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Broadcast queues an event for all clients. It never blocks; when the queue
// is full the event is dropped.
func (h *WSHub) Broadcast(event attr.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("ws broadcast channel full, dropping event", "type", event.Type)
	}
}

func (s *Server) snapshot() ([]byte, error) {
	var views []attributeView
	for ep := range s.tree.Endpoints() {
		for c := range ep.Clusters() {
			for a := range c.Attributes() {
				views = append(views, viewAttribute(a))
			}
		}
	}
	return json.Marshal(attr.Event{Type: EventSnapshot, Data: views})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(s.allowedOrigins) > 0 {
		opts.OriginPatterns = s.allowedOrigins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Error("ws accept", "err", err)
		return
	}
	conn.SetReadLimit(4096)

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, wsClientBuffer),
	}

	// Queued before registering, while the hub cannot close send yet.
	if data, err := s.snapshot(); err != nil {
		s.logger.Error("ws snapshot", "err", err)
	} else {
		client.send <- data
	}

	select {
	case s.wsHub.register <- client:
	case <-s.wsHub.done:
		conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}

	go s.wsWritePump(client)
	s.wsReadPump(client)
}

func (s *Server) wsWritePump(client *wsClient) {
	for msg := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
	client.conn.Close(websocket.StatusNormalClosure, "")
}

// wsReadPump applies filter messages from the client until it disconnects.
func (s *Server) wsReadPump(client *wsClient) {
	defer func() {
		select {
		case s.wsHub.unregister <- client:
		case <-s.wsHub.done:
			client.conn.Close(websocket.StatusGoingAway, "server shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-s.wsHub.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			return
		}
		var f wsFilter
		if err := json.Unmarshal(data, &f); err != nil {
			s.logger.Debug("ws bad filter message", "err", err)
			continue
		}
		client.endpoint.Store(f.Endpoint)
		if f.Endpoint != nil {
			s.logger.Debug("ws client filter", "endpoint", fmt.Sprintf("0x%04X", *f.Endpoint))
		}
	}
}
