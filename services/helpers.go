package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateTournamentDates(regOpen, regClose, start, end time.Time) error {
	if regOpen.IsZero() || regClose.IsZero() || start.IsZero() || end.IsZero() {
		return ErrTournamentDatesRequired
	}
	if regOpen.After(regClose) {
		return fmt.Errorf("%w: registration opens (%s) after it closes (%s)",
			ErrTournamentInvalidRegDate, regOpen.Format(time.RFC3339), regClose.Format(time.RFC3339))
	}
	if regClose.After(start) {
		return fmt.Errorf("%w: registration closes (%s) after the start date (%s)",
			ErrTournamentInvalidRegDate, regClose.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)",
			ErrTournamentInvalidDates, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidTournamentStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentStatusUpcoming:  {models.TournamentStatusOngoing, models.TournamentStatusCancelled},
		models.TournamentStatusOngoing:   {models.TournamentStatusCompleted, models.TournamentStatusCancelled},
		models.TournamentStatusCompleted: {},
		models.TournamentStatusCancelled: {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// emitNotification записывает уведомление best-effort: отказ логируется и
// не откатывает уже выполненный переход состояния.
func emitNotification(ctx context.Context, repo repositories.NotificationRepository, logger *slog.Logger, n *models.Notification) {
	if repo == nil {
		return
	}
	if err := repo.Create(ctx, n); err != nil {
		logger.ErrorContext(ctx, "failed to emit notification",
			slog.Int("user_id", n.UserID),
			slog.String("type", string(n.Type)),
			slog.Any("error", err))
	}
}
