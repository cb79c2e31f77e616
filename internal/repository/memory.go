package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

// MemoryActivityLog is an in-process ActivityLogRepository used when no database is configured.
type MemoryActivityLog struct {
	mu       sync.RWMutex
	nextID   int64
	entries  []domain.ActivityLogEntry
	now      func() time.Time
	failNext int
	failErr  error
}

// NewMemoryActivityLog returns an empty store.
func NewMemoryActivityLog() *MemoryActivityLog {
	return &MemoryActivityLog{now: time.Now}
}

// FailNextAppends makes the next n Append calls return err without writing.
func (m *MemoryActivityLog) FailNextAppends(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.failErr = err
}

func (m *MemoryActivityLog) Append(_ context.Context, entries []domain.ActivityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext > 0 {
		m.failNext--
		return m.failErr
	}
	ts := m.now()
	for i := range entries {
		m.nextID++
		entries[i].ID = m.nextID
		entries[i].CreatedAt = ts
		if entries[i].State == "" {
			entries[i].State = domain.RecordActive
		}
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MemoryActivityLog) ListByTicket(_ context.Context, ticketID int64) ([]domain.ActivityLogEntry, error) {
	return m.filter(func(e domain.ActivityLogEntry) bool { return e.TicketID == ticketID }), nil
}

func (m *MemoryActivityLog) ListByIDs(_ context.Context, ids []int64) ([]domain.ActivityLogEntry, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return m.filter(func(e domain.ActivityLogEntry) bool {
		_, ok := want[e.ID]
		return ok
	}), nil
}

func (m *MemoryActivityLog) filter(keep func(domain.ActivityLogEntry) bool) []domain.ActivityLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.ActivityLogEntry{}
	for _, e := range m.entries {
		if e.State == domain.RecordActive && keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type assigneeKey struct {
	ticketID int64
	userID   int64
}

// MemoryAssignees is an in-process AssigneeRepository enforcing the (ticket, user) uniqueness.
type MemoryAssignees struct {
	mu       sync.Mutex
	rows     map[assigneeKey]struct{}
	byTicket map[int64][]int64
}

// NewMemoryAssignees returns an empty relation.
func NewMemoryAssignees() *MemoryAssignees {
	return &MemoryAssignees{
		rows:     make(map[assigneeKey]struct{}),
		byTicket: make(map[int64][]int64),
	}
}

func (m *MemoryAssignees) ListByTicket(_ context.Context, ticketID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.byTicket[ticketID]...), nil
}

func (m *MemoryAssignees) Insert(_ context.Context, ticketID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assigneeKey{ticketID: ticketID, userID: userID}
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	m.rows[key] = struct{}{}
	m.byTicket[ticketID] = append(m.byTicket[ticketID], userID)
	return true, nil
}

// Count returns how many relation rows exist for the pair.
func (m *MemoryAssignees) Count(ticketID, userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.byTicket[ticketID] {
		if id == userID {
			n++
		}
	}
	return n
}

// MemoryTeams is a static TeamDirectory.
type MemoryTeams struct {
	mu      sync.RWMutex
	members map[int64][]int64
}

// NewMemoryTeams returns a directory with no teams.
func NewMemoryTeams() *MemoryTeams {
	return &MemoryTeams{members: make(map[int64][]int64)}
}

// SetMembers replaces a team's member list.
func (m *MemoryTeams) SetMembers(teamID int64, userIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[teamID] = append([]int64(nil), userIDs...)
}

func (m *MemoryTeams) MemberIDs(_ context.Context, teamID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), m.members[teamID]...), nil
}
