package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/realtime"
	"github.com/spec-kit/ticket-activity/internal/repository"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// NotificationService pushes events that do not come from a form save.
type NotificationService struct {
	teams       repository.TeamDirectory
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewNotificationService builds service.
func NewNotificationService(teams repository.TeamDirectory, broadcaster realtime.Broadcaster, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{teams: teams, broadcaster: broadcaster, logger: logger}
}

// BookmarkCreated tells every member of the team about a new shared bookmark.
// It returns the number of users notified.
func (s *NotificationService) BookmarkCreated(ctx context.Context, teamID int64, summary events.BookmarkSummary) (int, error) {
	if summary.ID <= 0 {
		return 0, apperrors.NewValidationError("invalid bookmark id", map[string]any{"id": summary.ID})
	}
	summary.TeamID = teamID
	return s.notifyTeam(ctx, teamID, events.NewBookmarkCreated, summary)
}

// BookmarkDeleted tells every member of the team that a bookmark is gone.
func (s *NotificationService) BookmarkDeleted(ctx context.Context, teamID, bookmarkID int64) (int, error) {
	if bookmarkID <= 0 {
		return 0, apperrors.NewValidationError("invalid bookmark id", map[string]any{"id": bookmarkID})
	}
	return s.notifyTeam(ctx, teamID, events.BookmarkDeleted, events.BookmarkDeletedPayload{ID: bookmarkID})
}

// PublishToRoom sends an ad-hoc event to a room.
func (s *NotificationService) PublishToRoom(room string, event events.Name, payload any) error {
	if !realtime.ValidRoom(room) {
		return apperrors.NewValidationError("invalid room", map[string]any{"room": room})
	}
	if event == "" {
		return apperrors.NewValidationError("event is required", nil)
	}
	s.broadcaster.Publish(room, event, payload)
	return nil
}

func (s *NotificationService) notifyTeam(ctx context.Context, teamID int64, event events.Name, payload any) (int, error) {
	if teamID <= 0 {
		return 0, apperrors.NewValidationError("invalid team id", map[string]any{"team_id": teamID})
	}
	members, err := s.teams.MemberIDs(ctx, teamID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for _, userID := range members {
		s.broadcaster.Notify(userID, event, payload)
	}
	s.logger.Debug("team notified",
		zap.Int64("team_id", teamID),
		zap.String("event", string(event)),
		zap.Int("recipients", len(members)))
	return len(members), nil
}
