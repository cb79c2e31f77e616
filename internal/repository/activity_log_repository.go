package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

// ActivityLogRepository is the append-only audit store. There is no update or delete path.
type ActivityLogRepository interface {
	// Append persists the batch atomically and fills ID, State and CreatedAt on each entry.
	Append(ctx context.Context, entries []domain.ActivityLogEntry) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityLogEntry, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.ActivityLogEntry, error)
}

type activityLogRepository struct {
	db DB
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(db DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

const activityLogColumns = `id, ticket_id, user_id, action_type, field_name, old_data, new_data, form_type, state, created_at`

func (r *activityLogRepository) Append(ctx context.Context, entries []domain.ActivityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
        INSERT INTO activity_logs (ticket_id, user_id, action_type, field_name, old_data, new_data, form_type, state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	for i := range entries {
		entry := &entries[i]
		if entry.State == "" {
			entry.State = domain.RecordActive
		}
		if err := tx.QueryRow(ctx, query,
			entry.TicketID,
			entry.UserID,
			entry.ActionType,
			entry.FieldName,
			entry.OldValue,
			entry.NewValue,
			entry.FormType,
			entry.State,
		).Scan(&entry.ID, &entry.CreatedAt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert activity log: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *activityLogRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityLogEntry, error) {
	query := `
        SELECT ` + activityLogColumns + `
        FROM activity_logs WHERE ticket_id=$1 AND state=$2 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID, domain.RecordActive)
	if err != nil {
		return nil, err
	}
	return scanActivityLogs(rows)
}

func (r *activityLogRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.ActivityLogEntry, error) {
	if len(ids) == 0 {
		return []domain.ActivityLogEntry{}, nil
	}
	query := `
        SELECT ` + activityLogColumns + `
        FROM activity_logs WHERE id = ANY($1) AND state=$2 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ids, domain.RecordActive)
	if err != nil {
		return nil, err
	}
	return scanActivityLogs(rows)
}

func scanActivityLogs(rows pgx.Rows) ([]domain.ActivityLogEntry, error) {
	defer rows.Close()

	result := []domain.ActivityLogEntry{}
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.ActionType,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.FormType,
			&entry.State,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
