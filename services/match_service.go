package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/esports-arena/platform/live"
	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
)

// matchTransitions — единственное место, где описан граф переходов:
// scheduled -> live -> completed, cancelled достижим из scheduled и live.
var matchTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusScheduled: {models.MatchStatusLive, models.MatchStatusCancelled},
	models.MatchStatusLive:      {models.MatchStatusCompleted, models.MatchStatusCancelled},
	models.MatchStatusCompleted: {},
	models.MatchStatusCancelled: {},
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	for _, allowed := range matchTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

type CreateMatchInput struct {
	Name        string    `json:"name"`
	MatchNumber *int      `json:"match_number,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Team1ID     *string   `json:"team1_id,omitempty"`
	Team2ID     *string   `json:"team2_id,omitempty"`
}

type UpdateMatchDetailsInput struct {
	Name        string    `json:"name"`
	MatchNumber *int      `json:"match_number,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Team1ID     *string   `json:"team1_id,omitempty"`
	Team2ID     *string   `json:"team2_id,omitempty"`
}

// MatchService управляет жизненным циклом матча.
type MatchService struct {
	repo           repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	hub            *live.Hub
	logger         *slog.Logger
}

func NewMatchService(
	repo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	hub *live.Hub,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		repo:           repo,
		tournamentRepo: tournamentRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *MatchService) Create(ctx context.Context, tournamentID int, input CreateMatchInput) (*models.Match, error) {
	if input.Name == "" || input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: name and scheduled_at are required", ErrValidationFailed)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	match := &models.Match{
		TournamentID: tournamentID,
		Name:         input.Name,
		MatchNumber:  input.MatchNumber,
		ScheduledAt:  input.ScheduledAt,
		Team1ID:      input.Team1ID,
		Team2ID:      input.Team2ID,
		Status:       models.MatchStatusScheduled,
	}
	if err := s.repo.Create(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// UpdateStatus выполняет переход статуса. Текущий статус перечитывается и
// повторно проверяется условием UPDATE; проигрыш гонки отдаётся как
// ErrConcurrentModification.
func (s *MatchService) UpdateStatus(ctx context.Context, matchID int, next models.MatchStatus) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !isValidMatchTransition(match.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidMatchTransition, match.Status, next)
	}

	var startedAt, endedAt *time.Time
	now := time.Now()
	switch next {
	case models.MatchStatusLive:
		startedAt = &now
	case models.MatchStatusCompleted:
		endedAt = &now
	}

	err = s.repo.TransitionStatus(ctx, matchID, match.Status, next, startedAt, endedAt)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchStatusMismatch) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	match.Status = next
	if startedAt != nil {
		match.StartedAt = startedAt
	}
	if endedAt != nil {
		match.EndedAt = endedAt
	}
	s.broadcast(ctx, match)
	return match, nil
}

// SetRoom назначает или меняет учётные данные комнаты. Комнаты часто
// выдаются прямо перед стартом, поэтому статус матча не проверяется.
func (s *MatchService) SetRoom(ctx context.Context, matchID int, roomID, roomPassword *string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRoom(ctx, matchID, roomID, roomPassword); err != nil {
		return nil, err
	}
	match.RoomID = roomID
	match.RoomPassword = roomPassword
	s.broadcast(ctx, match)
	return match, nil
}

// UpdateDetails меняет состав и расписание матча. Разрешено только в
// статусе scheduled: после старта идентичность матча зафиксирована.
func (s *MatchService) UpdateDetails(ctx context.Context, matchID int, input UpdateMatchDetailsInput) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchDetailsLocked
	}
	if input.Name == "" || input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: name and scheduled_at are required", ErrValidationFailed)
	}

	match.Name = input.Name
	match.MatchNumber = input.MatchNumber
	match.ScheduledAt = input.ScheduledAt
	match.Team1ID = input.Team1ID
	match.Team2ID = input.Team2ID
	if err := s.repo.UpdateDetails(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// RecordResult записывает структурированный результат. Доступно только
// после перехода матча в completed; сам переход результат не считает.
func (s *MatchService) RecordResult(ctx context.Context, matchID int, result *models.MatchResult) (*models.Match, error) {
	if result == nil || result.WinnerTeamID == "" {
		return nil, fmt.Errorf("%w: winner_team_id is required", ErrValidationFailed)
	}
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, ErrMatchResultNotRecordable
	}
	if err := s.repo.UpdateResult(ctx, matchID, result); err != nil {
		return nil, err
	}
	match.Result = result
	s.broadcast(ctx, match)
	return match, nil
}

func (s *MatchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	return s.getMatch(ctx, matchID)
}

func (s *MatchService) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	return s.repo.ListByTournament(ctx, tournamentID, statusFilter)
}

// Delete удаляет матч без ограничений по статусу; подтверждение — забота
// вызывающей стороны.
func (s *MatchService) Delete(ctx context.Context, matchID int) error {
	err := s.repo.Delete(ctx, matchID)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}

func (s *MatchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.repo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *MatchService) broadcast(ctx context.Context, match *models.Match) {
	if s.hub == nil {
		return
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve tournament for match broadcast",
			slog.Int("match_id", match.ID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(tournament.Slug, live.Message{
		Type:    live.EventMatchUpdated,
		Payload: match,
		RoomID:  tournament.Slug,
	})
}
