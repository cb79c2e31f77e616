package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/repository"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// AssignmentService keeps the ticket assignee relation in sync with who works a ticket.
type AssignmentService struct {
	assignees repository.AssigneeRepository
	logger    *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(assignees repository.AssigneeRepository, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignees: assignees, logger: logger}
}

// EnsureAssignee makes userID an assignee of ticketID. Repeated and concurrent calls converge on a
// single relation row and never report a duplicate.
func (s *AssignmentService) EnsureAssignee(ctx context.Context, ticketID, userID int64) error {
	if ticketID <= 0 || userID <= 0 {
		return apperrors.NewValidationError("invalid assignee", map[string]any{"ticket_id": ticketID, "user_id": userID})
	}

	existing, err := s.assignees.ListByTicket(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, id := range existing {
		if id == userID {
			return nil
		}
	}

	inserted, err := s.assignees.Insert(ctx, ticketID, userID)
	if errors.Is(err, repository.ErrAssigneeExists) {
		return nil
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if inserted {
		s.logger.Debug("assignee added", zap.Int64("ticket_id", ticketID), zap.Int64("user_id", userID))
	}
	return nil
}
