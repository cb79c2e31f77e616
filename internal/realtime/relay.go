package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/observability"
)

const relayQueueSize = 1024

const (
	envelopeRoom = "room"
	envelopeUser = "user"
)

// envelope is what instances exchange over the Redis channel.
type envelope struct {
	Origin string          `json:"origin"`
	Kind   string          `json:"kind"`
	Room   string          `json:"room,omitempty"`
	UserID int64           `json:"userId,omitempty"`
	Event  events.Name     `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Relay is a Broadcaster that delivers locally and mirrors every delivery to the other
// instances through Redis pub/sub, so clients connected anywhere see the same events.
// Envelopes are forwarded by a single goroutine, preserving publish order per instance.
type Relay struct {
	local   *Hub
	client  *redis.Client
	channel string
	origin  string
	queue   chan envelope
	logger  *zap.Logger
	metrics *observability.Metrics

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRelay wraps hub. Run must be started for anything to cross instances.
func NewRelay(hub *Hub, client *redis.Client, channel string, logger *zap.Logger, metrics *observability.Metrics) *Relay {
	return &Relay{
		local:   hub,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		queue:   make(chan envelope, relayQueueSize),
		logger:  logger,
		metrics: metrics,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Publish implements Broadcaster.
func (r *Relay) Publish(room string, event events.Name, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("encode payload", zap.String("room", room), zap.String("event", string(event)), zap.Error(err))
		return
	}
	r.local.PublishRaw(room, event, data)
	r.forward(envelope{Kind: envelopeRoom, Room: room, Event: event, Data: data})
}

// Notify implements Broadcaster.
func (r *Relay) Notify(userID int64, event events.Name, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("encode payload", zap.Int64("user_id", userID), zap.String("event", string(event)), zap.Error(err))
		return
	}
	r.local.NotifyRaw(userID, event, data)
	r.forward(envelope{Kind: envelopeUser, UserID: userID, Event: event, Data: data})
}

func (r *Relay) forward(env envelope) {
	env.Origin = r.origin
	select {
	case r.queue <- env:
	default:
		r.metrics.RecordRelayDropped()
		r.logger.Warn("relay queue full, envelope not forwarded", zap.String("event", string(env.Event)))
	}
}

// Run subscribes to the channel and pumps envelopes both ways until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.Info("relay subscribed", zap.String("channel", r.channel), zap.String("origin", r.origin))

	incoming := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-r.queue:
			body, err := json.Marshal(env)
			if err != nil {
				r.logger.Error("encode envelope", zap.Error(err))
				continue
			}
			if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
				r.metrics.RecordRelayDropped()
				r.logger.Warn("relay publish failed", zap.Error(err))
			}
		case msg, ok := <-incoming:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *Relay) deliver(body string) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		r.logger.Warn("discarding malformed envelope", zap.Error(err))
		return
	}
	if env.Origin == r.origin {
		return
	}
	switch env.Kind {
	case envelopeRoom:
		r.local.PublishRaw(env.Room, env.Event, env.Data)
	case envelopeUser:
		r.local.NotifyRaw(env.UserID, env.Event, env.Data)
	default:
		r.logger.Warn("discarding envelope of unknown kind", zap.String("kind", env.Kind))
	}
}
