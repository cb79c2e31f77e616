package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/observability"
)

type relayNode struct {
	registry *Registry
	relay    *Relay
}

func startRelayNode(t *testing.T, ctx context.Context, addr string) relayNode {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	registry := NewRegistry()
	hub := NewHub(registry, zap.NewNop(), nil)
	relay := NewRelay(hub, client, "test:broadcast", zap.NewNop(), observability.NewMetrics())
	go func() { _ = relay.Run(ctx) }()

	select {
	case <-relay.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not subscribe")
	}
	return relayNode{registry: registry, relay: relay}
}

func TestRelay_DeliversAcrossInstancesOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := startRelayNode(t, ctx, mr.Addr())
	b := startRelayNode(t, ctx, mr.Addr())

	local := NewConn("local", 1, 8)
	a.registry.Register(local)
	a.registry.Join("local", TicketRoom(9))

	remote := NewConn("remote", 2, 8)
	b.registry.Register(remote)
	b.registry.Join("remote", TicketRoom(9))

	a.relay.Publish(TicketRoom(9), events.FormDataUpdate, []int{1, 2})

	require.Eventually(t, func() bool {
		return len(remote.Outbound()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	got := drainFrames(t, remote)
	require.Len(t, got, 1)
	assert.Equal(t, events.FormDataUpdate, got[0].Event)
	assert.JSONEq(t, `[1,2]`, string(got[0].Data))

	// The origin's own echo is ignored, so the local client sees exactly one frame.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, drainFrames(t, local), 1)
}

func TestRelay_NotifyCrossesInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := startRelayNode(t, ctx, mr.Addr())
	b := startRelayNode(t, ctx, mr.Addr())

	c := NewConn("c", 77, 8)
	b.registry.Register(c)

	a.relay.Notify(77, events.NewBookmarkCreated, events.BookmarkSummary{ID: 1, Name: "Mine"})

	require.Eventually(t, func() bool {
		return len(c.Outbound()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	frames := drainFrames(t, c)
	assert.Equal(t, events.NewBookmarkCreated, frames[0].Event)
}

func TestRelay_IgnoresMalformedEnvelope(t *testing.T) {
	r := NewRelay(NewHub(NewRegistry(), zap.NewNop(), nil), nil, "x", zap.NewNop(), nil)
	r.deliver("not json")
	r.deliver(`{"origin":"other","kind":"weird","event":"form_start"}`)
}
