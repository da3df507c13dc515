package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
	"unicode"

	"github.com/esports-arena/platform/live"
	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
)

// maxTeamIDAttempts ограничивает перебор случайных суффиксов при генерации
// командного идентификатора.
const maxTeamIDAttempts = 25

type SubmitEnrollmentInput struct {
	GameNickname  string `json:"game_nickname"`
	GameUID       string `json:"game_uid"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
	TransactionID string `json:"transaction_id"`
}

// EnrollmentService управляет жизненным циклом заявки:
// pending -> completed | rejected, терминальные статусы не переигрываются.
type EnrollmentService struct {
	repo           repositories.EnrollmentRepository
	tournamentRepo repositories.TournamentRepository
	notifRepo      repositories.NotificationRepository
	hub            *live.Hub
	logger         *slog.Logger
}

func NewEnrollmentService(
	repo repositories.EnrollmentRepository,
	tournamentRepo repositories.TournamentRepository,
	notifRepo repositories.NotificationRepository,
	hub *live.Hub,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		repo:           repo,
		tournamentRepo: tournamentRepo,
		notifRepo:      notifRepo,
		hub:            hub,
		logger:         logger,
	}
}

// Submit создаёт заявку со статусом pending. Турнир должен принимать
// регистрации и иметь свободные слоты.
func (s *EnrollmentService) Submit(ctx context.Context, userID, tournamentID int, input SubmitEnrollmentInput) (*models.Enrollment, error) {
	if input.GameNickname == "" || input.GameUID == "" || input.TransactionID == "" {
		return nil, fmt.Errorf("%w: game_nickname, game_uid and transaction_id are required", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if !tournament.RegistrationIsOpen(time.Now()) {
		return nil, ErrRegistrationNotOpen
	}
	if tournament.CurrentParticipants >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	existing, err := s.repo.FindByUserAndTournament(ctx, userID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrEnrollmentNotFound) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		TournamentID:  tournamentID,
		UserID:        userID,
		GameNickname:  input.GameNickname,
		GameUID:       input.GameUID,
		ContactPhone:  input.ContactPhone,
		ContactEmail:  input.ContactEmail,
		TransactionID: input.TransactionID,
		PaymentStatus: models.EnrollmentStatusPending,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repositories.ErrEnrollmentConflict) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// Approve переводит pending-заявку в completed: назначает командный
// идентификатор, инкрементирует счётчик участников и шлёт уведомление.
// Условие payment_status = pending перепроверяется самим UPDATE, так что
// два одновременных одобрения не пройдут оба.
func (s *EnrollmentService) Approve(ctx context.Context, enrollmentID int) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment %d: %w", enrollmentID, err)
	}
	if enrollment.IsDecided() {
		return nil, ErrEnrollmentAlreadyDecided
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, enrollment.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", enrollment.TournamentID, err)
	}

	teamID, err := s.generateTeamID(ctx, tournament)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.repo.Decide(ctx, nil, enrollmentID, models.EnrollmentStatusCompleted, &teamID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotPending) {
			return nil, ErrEnrollmentAlreadyDecided
		}
		return nil, err
	}
	enrollment.PaymentStatus = models.EnrollmentStatusCompleted
	enrollment.TeamID = &teamID
	enrollment.DecidedAt = &now

	// Побочные эффекты идут отдельными best-effort шагами: заявка уже
	// одобрена, откат здесь не выполняется.
	if err := s.tournamentRepo.IncrementParticipants(ctx, nil, tournament.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to increment tournament participants",
			slog.Int("tournament_id", tournament.ID),
			slog.Int("enrollment_id", enrollmentID),
			slog.Any("error", err))
	}

	emitNotification(ctx, s.notifRepo, s.logger, &models.Notification{
		UserID:       enrollment.UserID,
		Title:        "Enrollment approved",
		Message:      fmt.Sprintf("Your payment for %s is verified. Your team id is %s.", tournament.Title, teamID),
		Type:         models.NotificationSuccess,
		TournamentID: &tournament.ID,
	})

	if s.hub != nil {
		s.hub.BroadcastToRoom(tournament.Slug, live.Message{
			Type:    live.EventEnrollmentApproved,
			Payload: enrollment,
			RoomID:  tournament.Slug,
		})
	}
	return enrollment, nil
}

// Reject переводит pending-заявку в rejected. Счётчик участников не
// затрагивается.
func (s *EnrollmentService) Reject(ctx context.Context, enrollmentID int) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment %d: %w", enrollmentID, err)
	}
	if enrollment.IsDecided() {
		return nil, ErrEnrollmentAlreadyDecided
	}

	now := time.Now()
	err = s.repo.Decide(ctx, nil, enrollmentID, models.EnrollmentStatusRejected, nil, now)
	if err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotPending) {
			return nil, ErrEnrollmentAlreadyDecided
		}
		return nil, err
	}
	enrollment.PaymentStatus = models.EnrollmentStatusRejected
	enrollment.DecidedAt = &now

	tournamentID := enrollment.TournamentID
	emitNotification(ctx, s.notifRepo, s.logger, &models.Notification{
		UserID:       enrollment.UserID,
		Title:        "Enrollment rejected",
		Message:      "Your payment could not be verified. Contact support if you believe this is a mistake.",
		Type:         models.NotificationWarning,
		TournamentID: &tournamentID,
	})
	return enrollment, nil
}

func (s *EnrollmentService) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEnrollmentNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.EnrollmentStatus) ([]*models.Enrollment, error) {
	return s.repo.ListByTournament(ctx, tournamentID, statusFilter)
}

func (s *EnrollmentService) ListByUser(ctx context.Context, userID int) ([]*models.Enrollment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// generateTeamID строит идентификатор вида <ПРЕФИКС><NNN>, где префикс —
// первые три буквы slug турнира, а NNN — случайное число в [100, 999].
// Уникальность в рамках турнира проверяется по уже выданным id с
// ограниченным числом повторов.
func (s *EnrollmentService) generateTeamID(ctx context.Context, tournament *models.Tournament) (string, error) {
	prefix := teamIDPrefix(tournament.Slug)

	existing, err := s.repo.ListTeamIDsByTournament(ctx, tournament.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list existing team ids: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		taken[id] = struct{}{}
	}

	for attempt := 0; attempt < maxTeamIDAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%d", prefix, 100+rand.IntN(900))
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", ErrTeamIDExhausted
}

func teamIDPrefix(slug string) string {
	var letters []rune
	for _, r := range slug {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}
