package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"labordash/internal/infrastructure"
	"labordash/pkg/contracts/events"
)

// broadcastBuffer bounds the messages queued ahead of the hub loop
const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them.
// The client set is owned by the Run loop; other goroutines talk to it
// through channels.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	count   int
	running bool

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit chan struct{}
	done chan struct{}
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Stop disconnects every client and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Run is the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.recordConnections(1)

			ctx := client.context()
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(ctx, client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			h.drop(client)

			h.logger.InfoContext(client.context(), "Client unregistered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			delivered, dropped := 0, 0
			for client := range h.clients {
				select {
				case client.send <- message:
					delivered++
				default:
					dropped++
					h.drop(client)
					h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}

			h.logger.Debug("Broadcast delivered",
				slog.Int("delivered", delivered),
				slog.Int("dropped", dropped),
				slog.Int("message_size", len(message)))
		}
	}
}

// Register adds a client to the hub. A hub that is not running turns the
// client away by closing its send channel, which ends its write pump.
func (h *Hub) Register(client *Client) {
	if !h.isRunning() {
		h.reject(client)
		return
	}

	select {
	case h.register <- client:
	case <-h.quit:
		h.reject(client)
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	if !h.isRunning() {
		return
	}

	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

func (h *Hub) isRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) reject(client *Client) {
	h.logger.DebugContext(client.context(), "Hub not running, client rejected",
		slog.String("client_id", client.id))
	close(client.send)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Publish broadcasts a typed message to every connected client. The trace ID
// of ctx travels with the message. A stopped hub silently discards it.
func (h *Hub) Publish(ctx context.Context, messageType events.MessageType, data interface{}) error {
	if !h.isRunning() {
		h.logger.DebugContext(ctx, "Hub not running, message discarded",
			slog.String("type", string(messageType)))
		return nil
	}

	payload, err := encode(ctx, messageType, data)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.metrics != nil {
		h.metrics.WebSocketBroadcasts.Add(ctx, 1,
			metric.WithAttributes(attribute.String("type", string(messageType))))
	}
	return nil
}

func encode(ctx context.Context, messageType events.MessageType, data interface{}) ([]byte, error) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      messageType,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", messageType, err)
	}
	return payload, nil
}

// greet sends the connect message to a newly registered client
func (h *Hub) greet(ctx context.Context, client *Client) {
	payload, err := encode(ctx, events.MessageTypeConnect, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode connect message", slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "Failed to send connect message, client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
	h.recordConnections(-1)
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

func (h *Hub) recordConnections(delta int64) {
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(context.Background(), delta)
	}
}
