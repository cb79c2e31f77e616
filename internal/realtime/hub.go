package realtime

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/observability"
)

// Broadcaster delivers events to rooms and to users' private channels.
// Both calls are fire-and-forget: they never block on a client and never fail the caller.
type Broadcaster interface {
	Publish(room string, event events.Name, payload any)
	Notify(userID int64, event events.Name, payload any)
}

// Frame is the wire envelope of every socket message.
type Frame struct {
	Event events.Name     `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub is the in-process Broadcaster over a Registry.
type Hub struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewHub creates a hub delivering to the registry's connections.
func NewHub(registry *Registry, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{registry: registry, logger: logger, metrics: metrics}
}

// Publish delivers to every connection in room at the time of the call.
func (h *Hub) Publish(room string, event events.Name, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode payload", zap.String("room", room), zap.String("event", string(event)), zap.Error(err))
		return
	}
	h.PublishRaw(room, event, data)
}

// Notify delivers to every connection owned by userID, whatever rooms they are in.
func (h *Hub) Notify(userID int64, event events.Name, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode payload", zap.Int64("user_id", userID), zap.String("event", string(event)), zap.Error(err))
		return
	}
	h.NotifyRaw(userID, event, data)
}

// PublishRaw is Publish with an already encoded payload.
func (h *Hub) PublishRaw(room string, event events.Name, data json.RawMessage) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("encode frame", zap.String("room", room), zap.Error(err))
		return
	}
	h.deliver(h.registry.Members(room), event, frame)
}

// NotifyRaw is Notify with an already encoded payload.
func (h *Hub) NotifyRaw(userID int64, event events.Name, data json.RawMessage) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("encode frame", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	h.deliver(h.registry.UserConns(userID), event, frame)
}

func (h *Hub) deliver(conns []*Conn, event events.Name, frame []byte) {
	for _, c := range conns {
		if c.Send(frame) {
			h.metrics.RecordDelivery(string(event))
			continue
		}
		h.metrics.RecordDroppedDelivery()
		h.registry.Unregister(c.ID())
		h.logger.Warn("dropped connection with full or closed send queue",
			zap.String("conn_id", c.ID()),
			zap.Int64("user_id", c.UserID()),
			zap.String("event", string(event)))
	}
}

func encodeFrame(event events.Name, data json.RawMessage) ([]byte, error) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
