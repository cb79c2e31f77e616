package domain

import (
	"strings"
	"time"
)

// ActionType captures what kind of activity an entry records.
type ActionType string

const (
	ActionFormStart      ActionType = "FORM_START"
	ActionFormDataUpdate ActionType = "FORM_DATA_UPDATE"
	ActionFormNewRecord  ActionType = "FORM_NEW_RECORD"
)

// RecordState tags a persisted row instead of nullable "deleted" markers.
type RecordState string

const (
	RecordActive  RecordState = "ACTIVE"
	RecordDeleted RecordState = "DELETED"
)

// FormType identifies a form and whether the activity came from its summary-flow variant.
type FormType string

const (
	FormTitleInfo    FormType = "TITLE_INFO"
	FormRegistration FormType = "REGISTRATION"
	FormBilling      FormType = "BILLING"
	FormLien         FormType = "LIEN"
	FormInsurance    FormType = "INSURANCE"
	FormTradeIn      FormType = "TRADE_IN"
)

const summaryPrefix = "SUMMARY_"

// Summary returns the summary-flow variant of the form type.
func (f FormType) Summary() FormType {
	if f.IsSummary() {
		return f
	}
	return FormType(summaryPrefix + string(f))
}

// IsSummary reports whether f is a summary-flow variant.
func (f FormType) IsSummary() bool {
	return strings.HasPrefix(string(f), summaryPrefix)
}

// Base strips the summary-flow marker.
func (f FormType) Base() FormType {
	return FormType(strings.TrimPrefix(string(f), summaryPrefix))
}

// ActivityLogEntry is an immutable audit trail entry.
// FieldName is nil for FORM_START and FORM_NEW_RECORD markers.
type ActivityLogEntry struct {
	ID         int64
	TicketID   int64
	UserID     int64
	ActionType ActionType
	FieldName  *string
	OldValue   *string
	NewValue   *string
	FormType   FormType
	State      RecordState
	CreatedAt  time.Time
}
