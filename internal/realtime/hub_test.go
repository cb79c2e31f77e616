package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/observability"
)

func drainFrames(t *testing.T, c *Conn) []Frame {
	t.Helper()
	var out []Frame
	for {
		select {
		case raw := <-c.Outbound():
			var f Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func eventNames(frames []Frame) []events.Name {
	out := make([]events.Name, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func TestHub_PublishReachesOnlyRoomMembers(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r, zap.NewNop(), observability.NewMetrics())

	in := NewConn("in", 1, 8)
	out := NewConn("out", 2, 8)
	r.Register(in)
	r.Register(out)
	r.Join("in", TicketRoom(5))
	r.Join("out", TicketRoom(6))

	hub.Publish(TicketRoom(5), events.FormDetailsUpdate, events.FormDetailsPayload{FormType: "BILLING"})

	frames := drainFrames(t, in)
	require.Len(t, frames, 1)
	assert.Equal(t, events.FormDetailsUpdate, frames[0].Event)
	assert.JSONEq(t, `{"formType":"BILLING","data":null}`, string(frames[0].Data))
	assert.Empty(t, drainFrames(t, out))
}

func TestHub_PublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub(NewRegistry(), zap.NewNop(), nil)
	hub.Publish("ticket:404", events.FormStart, map[string]string{"a": "b"})
}

func TestHub_PreservesOrderPerConnection(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r, zap.NewNop(), nil)
	c := NewConn("c", 1, 8)
	r.Register(c)
	r.Join("c", "list")

	hub.Publish("list", events.ActivityLogUpdate, 1)
	hub.Publish("list", events.FormDataUpdate, 2)
	hub.Publish("list", events.FormDetailsUpdate, 3)

	assert.Equal(t,
		[]events.Name{events.ActivityLogUpdate, events.FormDataUpdate, events.FormDetailsUpdate},
		eventNames(drainFrames(t, c)))
}

func TestHub_SlowConnectionIsDroppedWithoutBlocking(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r, zap.NewNop(), observability.NewMetrics())

	slow := NewConn("slow", 1, 1)
	fast := NewConn("fast", 2, 8)
	r.Register(slow)
	r.Register(fast)
	r.Join("slow", "ticket:1")
	r.Join("fast", "ticket:1")

	for i := 0; i < 3; i++ {
		hub.Publish("ticket:1", events.FormDataUpdate, i)
	}

	assert.True(t, slow.Closed())
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.Members("ticket:1"), 1)
	assert.Len(t, drainFrames(t, fast), 3)
}

func TestHub_NotifyReachesEveryConnectionOfUser(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r, zap.NewNop(), nil)
	a := NewConn("a", 9, 4)
	b := NewConn("b", 9, 4)
	other := NewConn("o", 10, 4)
	r.Register(a)
	r.Register(b)
	r.Register(other)

	hub.Notify(9, events.BookmarkDeleted, events.BookmarkDeletedPayload{ID: 3})

	assert.Len(t, drainFrames(t, a), 1)
	assert.Len(t, drainFrames(t, b), 1)
	assert.Empty(t, drainFrames(t, other))
}

func TestHub_UnencodablePayloadIsLoggedNotDelivered(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r, zap.NewNop(), nil)
	c := NewConn("c", 1, 4)
	r.Register(c)
	r.Join("c", "list")

	hub.Publish("list", events.FormStart, make(chan int))

	assert.Empty(t, drainFrames(t, c))
}
