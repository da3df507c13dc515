package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/esports-arena/platform/live"
	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
)

type UpsertLeaderboardStatsInput struct {
	TeamID        *string `json:"team_id,omitempty"`
	Score         int     `json:"score"`
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	Assists       int     `json:"assists"`
	Headshots     int     `json:"headshots"`
	MatchesPlayed int     `json:"matches_played"`
	Wins          int     `json:"wins"`
	AvgDamage     float64 `json:"avg_damage"`
	SurvivalTime  float64 `json:"survival_time"`
}

// LeaderboardService пересчитывает места, управляет дисквалификацией и
// выплатой призов.
type LeaderboardService struct {
	db             *sql.DB
	repo           repositories.LeaderboardRepository
	tournamentRepo repositories.TournamentRepository
	notifRepo      repositories.NotificationRepository
	hub            *live.Hub
	logger         *slog.Logger
}

func NewLeaderboardService(
	db *sql.DB,
	repo repositories.LeaderboardRepository,
	tournamentRepo repositories.TournamentRepository,
	notifRepo repositories.NotificationRepository,
	hub *live.Hub,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		db:             db,
		repo:           repo,
		tournamentRepo: tournamentRepo,
		notifRepo:      notifRepo,
		hub:            hub,
		logger:         logger,
	}
}

// rankEntries сортирует по score по убыванию, при равенстве — по kills по
// убыванию, и назначает плотные места с единицы. Дисквалифицированные
// записи из нумерации не исключаются. Сортировка стабильная, так что
// записи с равными score и kills сохраняют исходный относительный порядок.
func rankEntries(entries []*models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Kills > entries[j].Kills
	})
	for i, entry := range entries {
		entry.RankPosition = i + 1
	}
}

// RecalculateRanks перечитывает все записи турнира, пересчитывает порядок
// в памяти и перезаписывает rank_position каждой записи. Операция
// идемпотентна. Записи пишутся в одной транзакции, когда сервис владеет
// соединением с БД; при падении между записями без транзакции места
// остаются несогласованными до следующего пересчёта.
func (s *LeaderboardService) RecalculateRanks(ctx context.Context, tournamentID int) ([]*models.LeaderboardEntry, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var exec repositories.SQLExecutor
	var tx *sql.Tx
	if s.db != nil {
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin rank recalculation: %w", err)
		}
		defer tx.Rollback()
		exec = tx
	}

	entries, err := s.repo.ListByTournament(ctx, exec, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for tournament %d: %w", tournamentID, err)
	}
	rankEntries(entries)

	if err := s.repo.UpdateRanks(ctx, exec, entries); err != nil {
		return nil, err
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit rank recalculation: %w", err)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(tournament.Slug, live.Message{
			Type:    live.EventLeaderboardUpdated,
			Payload: entries,
			RoomID:  tournament.Slug,
		})
	}
	return entries, nil
}

// CreateEntry заводит запись для участника. KD вычисляется сервером.
func (s *LeaderboardService) CreateEntry(ctx context.Context, tournamentID, userID int, input UpsertLeaderboardStatsInput) (*models.LeaderboardEntry, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	entry := &models.LeaderboardEntry{
		TournamentID:  tournamentID,
		UserID:        userID,
		TeamID:        input.TeamID,
		Score:         input.Score,
		Kills:         input.Kills,
		Deaths:        input.Deaths,
		Assists:       input.Assists,
		Headshots:     input.Headshots,
		MatchesPlayed: input.MatchesPlayed,
		Wins:          input.Wins,
		AvgDamage:     input.AvgDamage,
		SurvivalTime:  input.SurvivalTime,
		KDRatio:       models.ComputeKD(input.Kills, input.Deaths),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrLeaderboardEntryConflict) {
			return nil, ErrLeaderboardUserConflict
		}
		return nil, err
	}
	return entry, nil
}

// UpdateStats перезаписывает сырую статистику записи. Пересчёт мест не
// запускается автоматически — это отдельная явная операция.
func (s *LeaderboardService) UpdateStats(ctx context.Context, entryID int, input UpsertLeaderboardStatsInput) (*models.LeaderboardEntry, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	entry.TeamID = input.TeamID
	entry.Score = input.Score
	entry.Kills = input.Kills
	entry.Deaths = input.Deaths
	entry.Assists = input.Assists
	entry.Headshots = input.Headshots
	entry.MatchesPlayed = input.MatchesPlayed
	entry.Wins = input.Wins
	entry.AvgDamage = input.AvgDamage
	entry.SurvivalTime = input.SurvivalTime
	entry.KDRatio = models.ComputeKD(input.Kills, input.Deaths)

	if err := s.repo.UpdateStats(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Disqualify помечает запись дисквалифицированной. Причина обязательна.
// Место записи не пересчитывается автоматически.
func (s *LeaderboardService) Disqualify(ctx context.Context, entryID int, reason string) (*models.LeaderboardEntry, error) {
	if reason == "" {
		return nil, ErrDisqualifyReasonRequired
	}
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDisqualified(ctx, entryID, true, &reason); err != nil {
		return nil, err
	}
	entry.IsDisqualified = true
	entry.DQReason = &reason
	return entry, nil
}

// Requalify снимает дисквалификацию и очищает причину.
func (s *LeaderboardService) Requalify(ctx context.Context, entryID int) (*models.LeaderboardEntry, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDisqualified(ctx, entryID, false, nil); err != nil {
		return nil, err
	}
	entry.IsDisqualified = false
	entry.DQReason = nil
	return entry, nil
}

// DistributePrize выставляет сумму приза и флаг выплаты, затем шлёт
// уведомление. Повторный вызов перезаписывает сумму и шлёт уведомление
// ещё раз; обратной операции нет.
func (s *LeaderboardService) DistributePrize(ctx context.Context, entryID int, amount int) (*models.LeaderboardEntry, error) {
	if amount < 0 {
		return nil, ErrInvalidPrizeAmount
	}
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPrize(ctx, entryID, amount); err != nil {
		return nil, err
	}
	entry.PrizeWon = amount
	entry.PrizeSent = true

	tournamentID := entry.TournamentID
	emitNotification(ctx, s.notifRepo, s.logger, &models.Notification{
		UserID:       entry.UserID,
		Title:        "Prize distributed",
		Message:      fmt.Sprintf("You have been awarded a prize of %d. Congratulations!", amount),
		Type:         models.NotificationTournament,
		TournamentID: &tournamentID,
	})
	return entry, nil
}

func (s *LeaderboardService) GetEntry(ctx context.Context, entryID int) (*models.LeaderboardEntry, error) {
	return s.getEntry(ctx, entryID)
}

func (s *LeaderboardService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.LeaderboardEntry, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.repo.ListByTournament(ctx, nil, tournamentID, true)
}

func (s *LeaderboardService) DeleteEntry(ctx context.Context, entryID int) error {
	err := s.repo.Delete(ctx, entryID)
	if errors.Is(err, repositories.ErrLeaderboardEntryNotFound) {
		return ErrLeaderboardEntryNotFound
	}
	return err
}

func (s *LeaderboardService) getEntry(ctx context.Context, entryID int) (*models.LeaderboardEntry, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeaderboardEntryNotFound) {
			return nil, ErrLeaderboardEntryNotFound
		}
		return nil, fmt.Errorf("failed to load leaderboard entry %d: %w", entryID, err)
	}
	return entry, nil
}

func (s *LeaderboardService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}
