// Package ws streams instance lifecycle events to WebSocket subscribers.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

const writeTimeout = 10 * time.Second

// EventMessage is the wire format for a streamed lifecycle event.
type EventMessage struct {
	InstanceID string `json:"instanceId"`
	Event      string `json:"event"`
	Reason     string `json:"reason,omitempty"`
	Timestamp  string `json:"timestamp"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(msg EventMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(msg)
}

// Hub fans lifecycle events out to the subscribers of each instance. QR
// codes are never pushed over the stream; subscribers are told a code is
// waiting and fetch it over the REST endpoint.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[domain.InstanceID]map[*subscriber]struct{}
}

// NewHub creates a new event hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger.Named("ws-hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: make(map[domain.InstanceID]map[*subscriber]struct{}),
	}
}

// HandleConnection upgrades the request and subscribes it to the instance
// named in the instanceId query parameter.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	id := domain.InstanceID(r.URL.Query().Get("instanceId"))
	if id == "" {
		http.Error(w, "instanceId query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[*subscriber]struct{})
	}
	h.subs[id][sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Event subscriber connected", zap.String("instance_id", id.String()))

	// Drain the read side so close frames and pings are processed; the
	// stream is server-to-client only.
	go func() {
		defer h.drop(id, sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(id domain.InstanceID, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[id]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
	_ = sub.conn.Close()
	h.logger.Info("Event subscriber disconnected", zap.String("instance_id", id.String()))
}

// Publish sends a lifecycle event to every subscriber of the instance.
func (h *Hub) Publish(id domain.InstanceID, evt provider.Event) {
	msg := EventMessage{
		InstanceID: id.String(),
		Event:      string(evt.Type),
		Reason:     evt.Reason,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[id]))
	for sub := range h.subs[id] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.send(msg); err != nil {
			h.drop(id, sub)
		}
	}
}

// Close closes every subscriber connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for sub := range set {
			_ = sub.conn.Close()
		}
	}
	h.subs = make(map[domain.InstanceID]map[*subscriber]struct{})
}
