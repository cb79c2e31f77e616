package events

import (
	"time"

	"github.com/spec-kit/ticket-activity/internal/domain"
)

// Name is a socket event name. The strings are part of the client contract.
type Name string

// Server → client.
const (
	FormDetailsUpdate  Name = "form_details_update"
	FormDataUpdate     Name = "form_data_update"
	FormStart          Name = "form_start"
	ActivityLogUpdate  Name = "activity_log_update"
	NewBookmarkCreated Name = "new_bookmark_created"
	BookmarkDeleted    Name = "bookmark_deleted"
	TicketListUpdate   Name = "ticket_list_update"
	SocketError        Name = "socket_error"
)

// Client → server room control.
const (
	JoinRoom      Name = "join_room"
	LeaveRoom     Name = "leave_room"
	JoinListRoom  Name = "join_list_room"
	LeaveListRoom Name = "leave_list_room"
)

// ActivityEntry is the wire form of a domain.ActivityLogEntry.
type ActivityEntry struct {
	ID         int64             `json:"id"`
	TicketID   int64             `json:"ticketId"`
	UserID     int64             `json:"userId"`
	ActionType domain.ActionType `json:"actionType"`
	FieldName  *string           `json:"fieldName"`
	OldValue   *string           `json:"oldValue"`
	NewValue   *string           `json:"newValue"`
	FormType   domain.FormType   `json:"formType"`
	IsSummary  bool              `json:"isSummary"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// FormDetailsPayload carries the authoritative latest snapshot of a form.
type FormDetailsPayload struct {
	FormType domain.FormType `json:"formType"`
	Data     domain.Snapshot `json:"data"`
}

// TicketListPayload tells list viewers a ticket row may be stale.
type TicketListPayload struct {
	TicketID int64           `json:"ticketId"`
	FormType domain.FormType `json:"formType"`
	UserID   int64           `json:"userId"`
}

// BookmarkSummary describes a saved list filter shared with a team.
type BookmarkSummary struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	TeamID    int64          `json:"teamId"`
	CreatedBy int64          `json:"createdBy"`
	Filters   map[string]any `json:"filters,omitempty"`
}

// BookmarkDeletedPayload identifies a removed bookmark.
type BookmarkDeletedPayload struct {
	ID int64 `json:"id"`
}

// RoomRequest is the body of the room control events.
type RoomRequest struct {
	TicketID int64  `json:"ticketId"`
	Scope    string `json:"scope"`
}

// ErrorPayload reports a rejected client frame.
type ErrorPayload struct {
	Event   Name   `json:"event"`
	Message string `json:"message"`
}

// NewActivityEntry converts a persisted or pending entry.
func NewActivityEntry(e domain.ActivityLogEntry) ActivityEntry {
	return ActivityEntry{
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
	}
}

// NewActivityEntries converts a batch.
func NewActivityEntries(entries []domain.ActivityLogEntry) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewActivityEntry(e))
	}
	return out
}
