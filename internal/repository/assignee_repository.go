package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAssigneeExists reports that the (ticket, user) relation is already present.
var ErrAssigneeExists = errors.New("assignee already exists")

const uniqueViolation = "23505"

// AssigneeRepository manages the ticket/user assignee relation.
type AssigneeRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]int64, error)
	// Insert returns false when the row already existed.
	Insert(ctx context.Context, ticketID, userID int64) (bool, error)
}

type assigneeRepository struct {
	db DB
}

// NewAssigneeRepository constructs repository.
func NewAssigneeRepository(db DB) AssigneeRepository {
	return &assigneeRepository{db: db}
}

func (r *assigneeRepository) ListByTicket(ctx context.Context, ticketID int64) ([]int64, error) {
	const query = `SELECT user_id FROM ticket_assignees WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		result = append(result, userID)
	}
	return result, rows.Err()
}

func (r *assigneeRepository) Insert(ctx context.Context, ticketID, userID int64) (bool, error) {
	const query = `
        INSERT INTO ticket_assignees (ticket_id, user_id)
        VALUES ($1,$2)
        ON CONFLICT (ticket_id, user_id) DO NOTHING`
	cmd, err := r.db.Exec(ctx, query, ticketID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, ErrAssigneeExists
		}
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
