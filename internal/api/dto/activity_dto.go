package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

// RecordActivityRequest reports one committed form save.
type RecordActivityRequest struct {
	UserID         int64           `json:"user_id"`
	FormType       domain.FormType `json:"form_type"`
	IsUpdate       bool            `json:"is_update"`
	IsNewSubRecord bool            `json:"is_new_sub_record"`
	Prior          map[string]any  `json:"prior"`
	Next           map[string]any  `json:"next"`
}

// LookupActivityRequest asks for entries by id ("show more").
type LookupActivityRequest struct {
	IDs []int64 `json:"ids"`
}

// ActivityLogEntryResponse is the REST view of an entry.
type ActivityLogEntryResponse struct {
	ID         int64             `json:"id"`
	TicketID   int64             `json:"ticket_id"`
	UserID     int64             `json:"user_id"`
	ActionType domain.ActionType `json:"action_type"`
	FieldName  *string           `json:"field_name"`
	OldValue   *string           `json:"old_value"`
	NewValue   *string           `json:"new_value"`
	FormType   domain.FormType   `json:"form_type"`
	IsSummary  bool              `json:"is_summary"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewActivityLogEntryResponses maps entries for output.
func NewActivityLogEntryResponses(entries []domain.ActivityLogEntry) []ActivityLogEntryResponse {
	out := make([]ActivityLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityLogEntryResponse{
			ID:         e.ID,
			TicketID:   e.TicketID,
			UserID:     e.UserID,
			ActionType: e.ActionType,
			FieldName:  e.FieldName,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			FormType:   e.FormType,
			IsSummary:  e.FormType.IsSummary(),
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

// EnsureAssigneeRequest names the user to add.
type EnsureAssigneeRequest struct {
	UserID int64 `json:"user_id"`
}

// PublishRequest is an ad-hoc room event.
type PublishRequest struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// BookmarkCreatedRequest describes a bookmark shared with a team.
type BookmarkCreatedRequest struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	CreatedBy int64          `json:"created_by"`
	Filters   map[string]any `json:"filters"`
}

// BookmarkDeletedRequest identifies a removed bookmark.
type BookmarkDeletedRequest struct {
	ID int64 `json:"id"`
}

// NotifyResponse reports fan-out size.
type NotifyResponse struct {
	Recipients int `json:"recipients"`
}
