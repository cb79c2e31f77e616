package realtime

import (
	"sort"
	"sync"
)

type connEntry struct {
	conn  *Conn
	rooms map[string]struct{}
}

// Registry is the single source of truth for room membership.
// Joins and leaves take the write lock; lookups return a snapshot taken under the read lock,
// so delivery never iterates live maps.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry
	rooms map[string]map[string]*Conn
	users map[int64]map[string]*Conn

	onSize func(int)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
		rooms: make(map[string]map[string]*Conn),
		users: make(map[int64]map[string]*Conn),
	}
}

// OnSizeChange registers a callback receiving the connection count after each change.
// Must be set before the registry is shared.
func (r *Registry) OnSizeChange(fn func(int)) {
	r.onSize = fn
}

// Register adds a connected client that has not joined any room yet.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	if _, exists := r.conns[c.ID()]; !exists {
		r.conns[c.ID()] = &connEntry{conn: c, rooms: make(map[string]struct{})}
		byUser := r.users[c.UserID()]
		if byUser == nil {
			byUser = make(map[string]*Conn)
			r.users[c.UserID()] = byUser
		}
		byUser[c.ID()] = c
	}
	n := len(r.conns)
	r.mu.Unlock()
	r.reportSize(n)
}

// Join adds the connection to room. Joining twice is a no-op; unknown connections are ignored.
// It reports whether the connection is known.
func (r *Registry) Join(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[connID]
	if !ok {
		return false
	}
	if _, already := entry.rooms[room]; already {
		return true
	}
	entry.rooms[room] = struct{}{}
	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Conn)
		r.rooms[room] = members
	}
	members[connID] = entry.conn
	return true
}

// Leave removes the connection from room if present.
func (r *Registry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// LeaveAll removes the connection from every room. The connection stays registered.
func (r *Registry) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(connID)
}

// Unregister is the Disconnected transition: the connection leaves every room and is forgotten.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	entry, ok := r.conns[connID]
	if ok {
		r.leaveAllLocked(connID)
		delete(r.conns, connID)
		if byUser := r.users[entry.conn.UserID()]; byUser != nil {
			delete(byUser, connID)
			if len(byUser) == 0 {
				delete(r.users, entry.conn.UserID())
			}
		}
	}
	n := len(r.conns)
	r.mu.Unlock()
	if ok {
		r.reportSize(n)
	}
}

// Members snapshots the connections currently in room.
func (r *Registry) Members(room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.rooms[room])
}

// UserConns snapshots every connection owned by userID.
func (r *Registry) UserConns(userID int64) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// RoomsOf lists the rooms a connection has joined, sorted.
func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entry.rooms))
	for room := range entry.rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) leaveLocked(connID, room string) {
	entry, ok := r.conns[connID]
	if !ok {
		return
	}
	if _, in := entry.rooms[room]; !in {
		return
	}
	delete(entry.rooms, room)
	if members := r.rooms[room]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

func (r *Registry) leaveAllLocked(connID string) {
	entry, ok := r.conns[connID]
	if !ok {
		return
	}
	for room := range entry.rooms {
		r.leaveLocked(connID, room)
	}
}

func (r *Registry) reportSize(n int) {
	if r.onSize != nil {
		r.onSize(n)
	}
}

func snapshot(set map[string]*Conn) []*Conn {
	out := make([]*Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}
