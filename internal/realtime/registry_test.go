package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRooms(t *testing.T) {
	assert.Equal(t, "ticket:42", TicketRoom(42))
	assert.Equal(t, "list", ListRoom(""))
	assert.Equal(t, "list:queue-a", ListRoom(" queue-a "))

	assert.True(t, ValidRoom("ticket:1"))
	assert.True(t, ValidRoom("list"))
	assert.True(t, ValidRoom("list:x"))
	assert.False(t, ValidRoom("ticket:0"))
	assert.False(t, ValidRoom("ticket:abc"))
	assert.False(t, ValidRoom("other"))
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := NewConn("c1", 1, 4)
	r.Register(c)

	require.True(t, r.Join("c1", "ticket:1"))
	require.True(t, r.Join("c1", "ticket:1"))

	assert.Len(t, r.Members("ticket:1"), 1)
	assert.Equal(t, []string{"ticket:1"}, r.RoomsOf("c1"))
}

func TestRegistry_UnknownConnectionIsNoop(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Join("ghost", "ticket:1"))
	r.Leave("ghost", "ticket:1")
	r.LeaveAll("ghost")
	r.Unregister("ghost")

	assert.Empty(t, r.Members("ticket:1"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LeaveAndLeaveAll(t *testing.T) {
	r := NewRegistry()
	r.Register(NewConn("c1", 1, 4))
	r.Join("c1", "ticket:1")
	r.Join("c1", "ticket:2")
	r.Join("c1", "list")

	r.Leave("c1", "ticket:1")
	assert.Empty(t, r.Members("ticket:1"))
	assert.Equal(t, []string{"list", "ticket:2"}, r.RoomsOf("c1"))

	r.LeaveAll("c1")
	assert.Empty(t, r.RoomsOf("c1"))
	assert.Equal(t, 1, r.Len(), "LeaveAll keeps the connection registered")
}

func TestRegistry_UnregisterForgetsConnection(t *testing.T) {
	r := NewRegistry()
	var sizes []int
	r.OnSizeChange(func(n int) { sizes = append(sizes, n) })

	r.Register(NewConn("c1", 7, 4))
	r.Register(NewConn("c2", 7, 4))
	r.Join("c1", "ticket:1")

	r.Unregister("c1")

	assert.Empty(t, r.Members("ticket:1"))
	assert.Nil(t, r.RoomsOf("c1"))
	require.Len(t, r.UserConns(7), 1)
	assert.Equal(t, "c2", r.UserConns(7)[0].ID())
	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestRegistry_MembersIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(NewConn("c1", 1, 4))
	r.Join("c1", "ticket:1")

	members := r.Members("ticket:1")
	r.Unregister("c1")

	assert.Len(t, members, 1)
	assert.Empty(t, r.Members("ticket:1"))
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	const n = 50
	for i := 0; i < n; i++ {
		r.Register(NewConn(fmt.Sprintf("c%d", i), int64(i), 4))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Join(id, "ticket:1")
			r.Join(id, "list")
			_ = r.Members("ticket:1")
			r.Leave(id, "list")
		}(fmt.Sprintf("c%d", i))
	}
	wg.Wait()

	assert.Len(t, r.Members("ticket:1"), n)
	assert.Empty(t, r.Members("list"))
}

func TestConn_SendOverflowCloses(t *testing.T) {
	c := NewConn("c1", 1, 1)

	assert.True(t, c.Send([]byte("a")))
	assert.False(t, c.Send([]byte("b")))
	assert.True(t, c.Closed())
	assert.False(t, c.Send([]byte("c")))

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel not closed")
	}
	c.Close()
}
