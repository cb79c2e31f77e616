package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssigneeRepository_InsertNew(t *testing.T) {
	mock := newMock(t)
	repo := NewAssigneeRepository(mock)

	mock.ExpectExec(`ON CONFLICT \(ticket_id, user_id\) DO NOTHING`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.Insert(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssigneeRepository_InsertConflictDoNothing(t *testing.T) {
	mock := newMock(t)
	repo := NewAssigneeRepository(mock)

	mock.ExpectExec(`INSERT INTO ticket_assignees`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.Insert(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssigneeRepository_UniqueViolationMapsToSentinel(t *testing.T) {
	mock := newMock(t)
	repo := NewAssigneeRepository(mock)

	mock.ExpectExec(`INSERT INTO ticket_assignees`).
		WithArgs(int64(7), int64(3)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), 7, 3)
	require.ErrorIs(t, err, ErrAssigneeExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssigneeRepository_ListByTicket(t *testing.T) {
	mock := newMock(t)
	repo := NewAssigneeRepository(mock)

	mock.ExpectQuery(`SELECT user_id FROM ticket_assignees WHERE ticket_id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(3)).AddRow(int64(9)))

	ids, err := repo.ListByTicket(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamDirectory_MemberIDs(t *testing.T) {
	mock := newMock(t)
	dir := NewTeamDirectory(mock)

	mock.ExpectQuery(`FROM team_members`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)).AddRow(int64(2)))

	ids, err := dir.MemberIDs(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
