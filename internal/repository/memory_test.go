package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

func TestMemoryActivityLog_AppendAndQuery(t *testing.T) {
	store := NewMemoryActivityLog()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, []domain.ActivityLogEntry{
		{TicketID: 1, ActionType: domain.ActionFormStart},
		{TicketID: 2, ActionType: domain.ActionFormStart},
	}))
	require.NoError(t, store.Append(ctx, []domain.ActivityLogEntry{
		{TicketID: 1, ActionType: domain.ActionFormDataUpdate, FieldName: strPtr("VIN")},
	}))

	byTicket, err := store.ListByTicket(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byTicket, 2)
	assert.Equal(t, int64(1), byTicket[0].ID)
	assert.Equal(t, int64(3), byTicket[1].ID)

	byIDs, err := store.ListByIDs(ctx, []int64{3, 2, 99})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, int64(2), byIDs[0].ID)
}

func TestMemoryActivityLog_FailNext(t *testing.T) {
	store := NewMemoryActivityLog()
	boom := errors.New("boom")
	store.FailNextAppends(1, boom)

	err := store.Append(context.Background(), []domain.ActivityLogEntry{{TicketID: 1}})
	require.ErrorIs(t, err, boom)
	require.NoError(t, store.Append(context.Background(), []domain.ActivityLogEntry{{TicketID: 1}}))

	entries, _ := store.ListByTicket(context.Background(), 1)
	assert.Len(t, entries, 1)
}

func TestMemoryActivityLog_OrderedByCreatedAt(t *testing.T) {
	store := NewMemoryActivityLog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(-time.Duration(calls) * time.Minute)
	}
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, []domain.ActivityLogEntry{{TicketID: 1}}))
	require.NoError(t, store.Append(ctx, []domain.ActivityLogEntry{{TicketID: 1}}))

	entries, _ := store.ListByTicket(ctx, 1)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
}

func TestMemoryAssignees_ConcurrentInsertKeepsOneRow(t *testing.T) {
	store := NewMemoryAssignees()
	var wg sync.WaitGroup
	inserted := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Insert(context.Background(), 7, 3)
			assert.NoError(t, err)
			inserted <- ok
		}()
	}
	wg.Wait()
	close(inserted)

	wins := 0
	for ok := range inserted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.Count(7, 3))
}

func TestMemoryTeams(t *testing.T) {
	teams := NewMemoryTeams()
	teams.SetMembers(4, 1, 2)

	ids, err := teams.MemberIDs(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = teams.MemberIDs(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
