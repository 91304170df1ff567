package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	// MessageDetection carries a newly recorded detection.
	MessageDetection = "detection"
	// MessageNotice carries a human-readable status notice (camera unavailable, monitoring state).
	MessageNotice = "notice"

	writeWait       = 5 * time.Second
	broadcastBuffer = 64
)

// Message is the envelope sent to every viewer.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// HubService fans detection events out to connected viewers.
type HubService struct {
	clients    map[Conn]bool
	broadcast  chan []byte
	register   chan Conn
	unregister chan Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewHubService(logger *logger.Logger, m *metrics.Metrics) *HubService {
	return &HubService{
		clients:    make(map[Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.updateGauge()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.updateGauge()
			h.logger.Info("Viewer connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.updateGauge()
			h.logger.Info("Viewer disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warning("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
			h.updateGauge()
		}
	}
}

func (h *HubService) updateGauge() {
	if h.metrics != nil {
		h.metrics.ActiveViewers.Store(int64(h.GetClientCount()))
	}
}

// Register adds a viewer. It blocks until the hub loop accepts it, the hub stops or ctx ends.
func (h *HubService) Register(ctx context.Context, client Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a viewer and closes its connection.
func (h *HubService) Unregister(ctx context.Context, client Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	case <-ctx.Done():
		client.Close()
	}
}

// Broadcast queues a typed message for every viewer. When the queue is full the message is dropped.
func (h *HubService) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("Failed to encode %s message: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warning("Broadcast queue full, dropping %s message", msgType)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
