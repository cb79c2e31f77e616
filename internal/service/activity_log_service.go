package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/diff"
	"github.com/spec-kit/ticket-activity/internal/domain"
	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/forms"
	"github.com/spec-kit/ticket-activity/internal/observability"
	"github.com/spec-kit/ticket-activity/internal/realtime"
	"github.com/spec-kit/ticket-activity/internal/repository"
	"github.com/spec-kit/ticket-activity/internal/worker"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

const maxLookupIDs = 500

// Lanes runs background work keyed by ticket. *worker.Pool satisfies it.
type Lanes interface {
	Submit(ctx context.Context, key int64, task worker.Task) error
}

// ActivityLogService turns form saves into audit entries and realtime events.
type ActivityLogService struct {
	store       repository.ActivityLogRepository
	forms       *forms.Registry
	broadcaster realtime.Broadcaster
	lanes       Lanes
	retries     int
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// ActivityDependencies bundles collaborators for the activity service.
type ActivityDependencies struct {
	Store         repository.ActivityLogRepository
	Forms         *forms.Registry
	Broadcaster   realtime.Broadcaster
	Lanes         Lanes
	AppendRetries int
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewActivityLogService creates the service.
func NewActivityLogService(deps ActivityDependencies) *ActivityLogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := deps.AppendRetries
	if retries < 0 {
		retries = 0
	}
	return &ActivityLogService{
		store:       deps.Store,
		forms:       deps.Forms,
		broadcaster: deps.Broadcaster,
		lanes:       deps.Lanes,
		retries:     retries,
		logger:      logger,
		metrics:     deps.Metrics,
	}
}

// FormActivity is the result of one committed form save.
type FormActivity struct {
	TicketID int64
	UserID   int64
	FormType domain.FormType
	// IsUpdate is false for the first save of a form on a ticket.
	IsUpdate bool
	// IsNewSubRecord marks an update that added another instance of a multi-instance form.
	IsNewSubRecord bool
	Prior          domain.Snapshot
	Next           domain.Snapshot
	// Spec overrides the registered field spec of FormType.
	Spec *diff.FieldSpec
}

// RecordFormActivity validates the save and queues it on the ticket's lane.
// It returns before anything is persisted or published; later failures are logged, never returned.
// Saves of one ticket are processed in the order they are recorded.
func (s *ActivityLogService) RecordFormActivity(ctx context.Context, activity FormActivity) error {
	spec, err := s.resolve(activity)
	if err != nil {
		return err
	}

	activity.Prior = activity.Prior.Clone()
	activity.Next = activity.Next.Clone()

	err = s.lanes.Submit(ctx, activity.TicketID, func(taskCtx context.Context) {
		s.process(taskCtx, activity, spec)
	})
	if errors.Is(err, worker.ErrPoolClosed) {
		return apperrors.NewUnavailable("activity pipeline is shutting down", err)
	}
	return err
}

// ListByTicket returns the active entries of a ticket, oldest first.
func (s *ActivityLogService) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ActivityLogEntry, error) {
	if ticketID <= 0 {
		return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": ticketID})
	}
	entries, err := s.store.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ListByIDs returns the active entries among ids, oldest first. Unknown ids are ignored.
func (s *ActivityLogService) ListByIDs(ctx context.Context, ids []int64) ([]domain.ActivityLogEntry, error) {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, apperrors.NewValidationError("invalid activity id", map[string]any{"id": id})
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) > maxLookupIDs {
		return nil, apperrors.NewValidationError("too many ids", map[string]any{"max": maxLookupIDs})
	}
	entries, err := s.store.ListByIDs(ctx, unique)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *ActivityLogService) resolve(a FormActivity) (diff.FieldSpec, error) {
	switch {
	case a.TicketID <= 0:
		return diff.FieldSpec{}, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": a.TicketID})
	case a.UserID <= 0:
		return diff.FieldSpec{}, apperrors.NewValidationError("invalid user id", map[string]any{"user_id": a.UserID})
	case a.FormType == "":
		return diff.FieldSpec{}, apperrors.NewValidationError("form type is required", nil)
	case a.Next == nil:
		return diff.FieldSpec{}, apperrors.NewValidationError("new snapshot is required", nil)
	case a.IsUpdate && !a.IsNewSubRecord && a.Prior == nil:
		return diff.FieldSpec{}, apperrors.NewValidationError("prior snapshot is required for updates", nil)
	}

	if a.Spec != nil {
		return *a.Spec, nil
	}
	def, ok := s.forms.Lookup(a.FormType)
	if !ok {
		return diff.FieldSpec{}, apperrors.NewValidationError("unknown form type", map[string]any{"form_type": a.FormType})
	}
	if a.IsUpdate && a.IsNewSubRecord && !def.MultiInstance {
		return diff.FieldSpec{}, apperrors.NewValidationError("form does not allow multiple records", map[string]any{"form_type": a.FormType})
	}
	return def.Spec, nil
}

// process runs on the ticket's lane.
func (s *ActivityLogService) process(ctx context.Context, a FormActivity, spec diff.FieldSpec) {
	logger := s.logger.With(
		zap.Int64("ticket_id", a.TicketID),
		zap.Int64("user_id", a.UserID),
		zap.String("form_type", string(a.FormType)),
	)
	if undeclared := spec.Undeclared(a.Next); len(undeclared) > 0 {
		logger.Debug("snapshot carries undeclared fields", zap.Strings("fields", undeclared))
	}

	room := realtime.TicketRoom(a.TicketID)
	entries := buildEntries(a, spec)

	if len(entries) > 0 {
		if s.appendWithRetry(ctx, logger, entries) {
			s.broadcaster.Publish(room, events.ActivityLogUpdate, events.NewActivityEntries(entries))
		}
		if entries[0].ActionType == domain.ActionFormStart {
			s.broadcaster.Publish(room, events.FormStart, events.NewActivityEntry(entries[0]))
		} else {
			s.broadcaster.Publish(room, events.FormDataUpdate, events.NewActivityEntries(entries))
		}
	}

	s.broadcaster.Publish(room, events.FormDetailsUpdate, events.FormDetailsPayload{FormType: a.FormType, Data: a.Next})
	s.broadcaster.Publish(realtime.ListRoom(""), events.TicketListUpdate, events.TicketListPayload{
		TicketID: a.TicketID,
		FormType: a.FormType,
		UserID:   a.UserID,
	})
}

func buildEntries(a FormActivity, spec diff.FieldSpec) []domain.ActivityLogEntry {
	base := domain.ActivityLogEntry{
		TicketID: a.TicketID,
		UserID:   a.UserID,
		FormType: a.FormType,
		State:    domain.RecordActive,
	}

	if !a.IsUpdate {
		base.ActionType = domain.ActionFormStart
		return []domain.ActivityLogEntry{base}
	}
	if a.IsNewSubRecord {
		base.ActionType = domain.ActionFormNewRecord
		return []domain.ActivityLogEntry{base}
	}

	changes := diff.Diff(a.Prior, a.Next, spec)
	if len(changes) == 0 {
		return nil
	}
	entries := make([]domain.ActivityLogEntry, 0, len(changes))
	for _, change := range changes {
		entry := base
		entry.ActionType = domain.ActionFormDataUpdate
		field := change.Field
		entry.FieldName = &field
		entry.OldValue = diff.Format(change.Old)
		entry.NewValue = diff.Format(change.New)
		entries = append(entries, entry)
	}
	return entries
}

// appendWithRetry writes entries in place. A batch is attempted once plus the configured retries.
func (s *ActivityLogService) appendWithRetry(ctx context.Context, logger *zap.Logger, entries []domain.ActivityLogEntry) bool {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		batch := append([]domain.ActivityLogEntry(nil), entries...)
		if err := s.store.Append(ctx, batch); err != nil {
			lastErr = err
			logger.Warn("activity append failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		copy(entries, batch)
		s.metrics.RecordAuditAppended(len(entries))
		return true
	}
	s.metrics.RecordAuditAppendFailure()
	logger.Error("activity entries lost after retries",
		zap.Int("entries", len(entries)),
		zap.Error(lastErr))
	return false
}
