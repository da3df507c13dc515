package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/esports-arena/platform/live"
	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
	"github.com/esports-arena/platform/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

// maxSlugAttempts ограничивает подбор суффикса при конфликте slug.
const maxSlugAttempts = 10

type TournamentInput struct {
	Title             string           `json:"title"`
	GameName          string           `json:"game_name"`
	MatchType         models.MatchType `json:"match_type"`
	JoiningFee        int              `json:"joining_fee"`
	MaxParticipants   int              `json:"max_participants"`
	PrizeWinner       int              `json:"prize_winner"`
	PrizeRunnerUp     int              `json:"prize_runner_up"`
	PrizeThirdPlace   int              `json:"prize_third_place"`
	RegistrationOpen  time.Time        `json:"registration_open"`
	RegistrationClose time.Time        `json:"registration_close"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
}

// TournamentOverview собирает данные для страницы турнира одним вызовом.
type TournamentOverview struct {
	Tournament  *models.Tournament         `json:"tournament"`
	Matches     []*models.Match            `json:"matches"`
	Leaderboard []*models.LeaderboardEntry `json:"leaderboard"`
}

// TournamentService инкапсулирует жизненный цикл турнира.
type TournamentService struct {
	repo            repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	leaderboardRepo repositories.LeaderboardRepository
	uploader        storage.FileUploader
	hub             *live.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	leaderboardRepo repositories.LeaderboardRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		repo:            repo,
		matchRepo:       matchRepo,
		leaderboardRepo: leaderboardRepo,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

func validateTournamentInput(input TournamentInput) error {
	if input.Title == "" || input.GameName == "" {
		return fmt.Errorf("%w: title and game_name are required", ErrValidationFailed)
	}
	switch input.MatchType {
	case models.MatchTypeSolo, models.MatchTypeDuo, models.MatchTypeSquad:
	default:
		return fmt.Errorf("%w: unknown match type %q", ErrValidationFailed, input.MatchType)
	}
	if input.MaxParticipants <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if input.JoiningFee < 0 || input.PrizeWinner < 0 || input.PrizeRunnerUp < 0 || input.PrizeThirdPlace < 0 {
		return fmt.Errorf("%w: fees and prizes must be non-negative", ErrValidationFailed)
	}
	return validateTournamentDates(input.RegistrationOpen, input.RegistrationClose, input.StartDate, input.EndDate)
}

// Create создаёт турнир со статусом upcoming. Slug выводится из названия,
// при конфликте добавляется числовой суффикс. Итоговый призовой фонд
// всегда равен сумме призовых мест.
func (s *TournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Title:           input.Title,
		GameName:        input.GameName,
		MatchType:       input.MatchType,
		JoiningFee:      input.JoiningFee,
		MaxParticipants: input.MaxParticipants,
		Status:          models.TournamentStatusUpcoming,
		PrizePool: models.PrizePool{
			Winner:     input.PrizeWinner,
			RunnerUp:   input.PrizeRunnerUp,
			ThirdPlace: input.PrizeThirdPlace,
			Total:      input.PrizeWinner + input.PrizeRunnerUp + input.PrizeThirdPlace,
		},
		RegistrationOpen:  input.RegistrationOpen,
		RegistrationClose: input.RegistrationClose,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
	}

	base := slug.Make(input.Title)
	tournament.Slug = base
	for attempt := 1; ; attempt++ {
		err := s.repo.Create(ctx, tournament)
		if err == nil {
			return tournament, nil
		}
		if !errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, err
		}
		if attempt >= maxSlugAttempts {
			return nil, ErrTournamentSlugConflict
		}
		tournament.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
	}
}

// Update меняет редактируемые поля турнира. Статус меняется отдельной
// операцией ChangeStatus, slug неизменяем после создания.
func (s *TournamentService) Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.MaxParticipants < tournament.CurrentParticipants {
		return nil, fmt.Errorf("%w: max_participants cannot drop below current participants (%d)",
			ErrValidationFailed, tournament.CurrentParticipants)
	}

	tournament.Title = input.Title
	tournament.GameName = input.GameName
	tournament.MatchType = input.MatchType
	tournament.JoiningFee = input.JoiningFee
	tournament.MaxParticipants = input.MaxParticipants
	tournament.PrizePool = models.PrizePool{
		Winner:     input.PrizeWinner,
		RunnerUp:   input.PrizeRunnerUp,
		ThirdPlace: input.PrizeThirdPlace,
		Total:      input.PrizeWinner + input.PrizeRunnerUp + input.PrizeThirdPlace,
	}
	tournament.RegistrationOpen = input.RegistrationOpen
	tournament.RegistrationClose = input.RegistrationClose
	tournament.StartDate = input.StartDate
	tournament.EndDate = input.EndDate

	if err := s.repo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.broadcast(tournament)
	return tournament, nil
}

// ChangeStatus валидирует переход по таблице и выполняет условный UPDATE,
// перепроверяющий текущий статус.
func (s *TournamentService) ChangeStatus(ctx context.Context, id int, next models.TournamentStatus) (*models.Tournament, error) {
	switch next {
	case models.TournamentStatusUpcoming, models.TournamentStatusOngoing,
		models.TournamentStatusCompleted, models.TournamentStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, next)
	}
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status == next {
		return tournament, nil
	}
	if !isValidTournamentStatusTransition(tournament.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, tournament.Status, next); err != nil {
		if errors.Is(err, repositories.ErrTournamentStatusMismatch) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	tournament.Status = next
	s.broadcast(tournament)
	return tournament, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) GetBySlug(ctx context.Context, slugValue string) (*models.Tournament, error) {
	tournament, err := s.repo.GetBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateBannerURL(t)
	}
	return tournaments, nil
}

// GetOverview грузит турнир, матчи и таблицу лидеров параллельно.
func (s *TournamentService) GetOverview(ctx context.Context, id int) (*TournamentOverview, error) {
	overview := &TournamentOverview{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.getTournament(gctx, id)
		if err != nil {
			return err
		}
		s.populateBannerURL(tournament)
		overview.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id, nil)
		if err != nil {
			return err
		}
		overview.Matches = matches
		return nil
	})
	g.Go(func() error {
		entries, err := s.leaderboardRepo.ListByTournament(gctx, nil, id, true)
		if err != nil {
			return err
		}
		overview.Leaderboard = entries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// UploadBanner загружает баннер турнира в объектное хранилище и запоминает
// ключ. Старый объект удаляется best-effort.
func (s *TournamentService) UploadBanner(ctx context.Context, id int, contentType string, reader io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("tournaments/%d/banner-%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	oldKey := tournament.BannerKey
	if err := s.repo.UpdateBannerKey(ctx, id, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous banner",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	tournament.BannerKey = &key
	s.populateBannerURL(tournament)
	return tournament, nil
}

func (s *TournamentService) Delete(ctx context.Context, id int) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

// AutoUpdateStatusesByDates переводит upcoming-турниры в ongoing после
// start_date и ongoing — в completed после end_date. Запускается
// планировщиком; проигранные гонки статусов просто пропускаются.
func (s *TournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	now := time.Now()

	sweep := func(from, to models.TournamentStatus, due func(*models.Tournament) bool) error {
		status := from
		tournaments, err := s.repo.List(ctx, &status, 100, 0)
		if err != nil {
			return fmt.Errorf("failed to list %s tournaments: %w", from, err)
		}
		for _, t := range tournaments {
			if !due(t) {
				continue
			}
			if err := s.repo.UpdateStatus(ctx, t.ID, from, to); err != nil {
				if errors.Is(err, repositories.ErrTournamentStatusMismatch) {
					continue
				}
				s.logger.ErrorContext(ctx, "failed to auto-update tournament status",
					slog.Int("tournament_id", t.ID),
					slog.String("from", string(from)),
					slog.String("to", string(to)),
					slog.Any("error", err))
				continue
			}
			t.Status = to
			s.broadcast(t)
		}
		return nil
	}

	if err := sweep(models.TournamentStatusUpcoming, models.TournamentStatusOngoing, func(t *models.Tournament) bool {
		return !now.Before(t.StartDate)
	}); err != nil {
		return err
	}
	return sweep(models.TournamentStatusOngoing, models.TournamentStatusCompleted, func(t *models.Tournament) bool {
		return now.After(t.EndDate)
	})
}

func (s *TournamentService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *TournamentService) populateBannerURL(t *models.Tournament) {
	if t == nil || t.BannerKey == nil || *t.BannerKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.BannerKey); url != "" {
		t.BannerURL = &url
	}
}

func (s *TournamentService) broadcast(t *models.Tournament) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(t.Slug, live.Message{
		Type:    live.EventTournamentUpdated,
		Payload: t,
		RoomID:  t.Slug,
	})
}
