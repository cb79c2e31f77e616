package realtime

import "sync"

// Conn is one client connection as seen by the registry: an identity plus a bounded
// outbound queue drained by the transport. Send never blocks; a full queue closes the
// connection so a slow client cannot stall publishers.
type Conn struct {
	id     string
	userID int64
	out    chan []byte
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewConn creates a connection with room for queueSize pending frames.
func NewConn(id string, userID int64, queueSize int) *Conn {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Conn{
		id:     id,
		userID: userID,
		out:    make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Conn) ID() string { return c.id }

// UserID returns the owning user.
func (c *Conn) UserID() int64 { return c.userID }

// Outbound yields frames in the order they were accepted.
func (c *Conn) Outbound() <-chan []byte { return c.out }

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Send queues frame. It reports false if the connection is closed or its queue overflowed,
// in which case the connection is now closed.
func (c *Conn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- frame:
		return true
	default:
		c.closeLocked()
		return false
	}
}

// Close marks the connection closed. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Closed reports whether Close has happened.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
