package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/esports-arena/platform/models"
	"github.com/lib/pq"
)

var (
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
	ErrLeaderboardEntryConflict = errors.New("leaderboard entry already exists for this user and tournament")
)

type LeaderboardRepository interface {
	Create(ctx context.Context, entry *models.LeaderboardEntry) error
	GetByID(ctx context.Context, id int) (*models.LeaderboardEntry, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByRank bool) ([]*models.LeaderboardEntry, error)
	UpdateStats(ctx context.Context, entry *models.LeaderboardEntry) error
	// UpdateRanks rewrites rank_position for every given entry. The caller
	// decides whether exec is a transaction; writes happen one statement per
	// entry over a single prepared statement.
	UpdateRanks(ctx context.Context, exec SQLExecutor, entries []*models.LeaderboardEntry) error
	SetDisqualified(ctx context.Context, id int, disqualified bool, reason *string) error
	SetPrize(ctx context.Context, id int, amount int) error
	Delete(ctx context.Context, id int) error
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leaderboardColumns = `
	id, tournament_id, user_id, team_id, score, kills, deaths, assists,
	headshots, matches_played, wins, avg_damage, survival_time, kd_ratio,
	rank_position, is_disqualified, dq_reason, prize_won, prize_distributed,
	updated_at`

func (r *postgresLeaderboardRepository) Create(ctx context.Context, entry *models.LeaderboardEntry) error {
	query := `
		INSERT INTO leaderboard_entries
			(tournament_id, user_id, team_id, score, kills, deaths, assists,
			 headshots, matches_played, wins, avg_damage, survival_time, kd_ratio,
			 rank_position, is_disqualified, dq_reason, prize_won, prize_distributed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query,
		entry.TournamentID, entry.UserID, entry.TeamID, entry.Score, entry.Kills,
		entry.Deaths, entry.Assists, entry.Headshots, entry.MatchesPlayed, entry.Wins,
		entry.AvgDamage, entry.SurvivalTime, entry.KDRatio,
		entry.RankPosition, entry.IsDisqualified, entry.DQReason,
		entry.PrizeWon, entry.PrizeSent, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrLeaderboardEntryConflict
		}
		return fmt.Errorf("failed to create leaderboard entry: %w", err)
	}
	return nil
}

func (r *postgresLeaderboardRepository) scanEntry(rowScanner interface{ Scan(...interface{}) error }) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := rowScanner.Scan(
		&e.ID, &e.TournamentID, &e.UserID, &e.TeamID, &e.Score, &e.Kills,
		&e.Deaths, &e.Assists, &e.Headshots, &e.MatchesPlayed, &e.Wins,
		&e.AvgDamage, &e.SurvivalTime, &e.KDRatio,
		&e.RankPosition, &e.IsDisqualified, &e.DQReason,
		&e.PrizeWon, &e.PrizeSent, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaderboardEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresLeaderboardRepository) GetByID(ctx context.Context, id int) (*models.LeaderboardEntry, error) {
	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_entries WHERE id = $1`
	return r.scanEntry(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresLeaderboardRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByRank bool) ([]*models.LeaderboardEntry, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_entries WHERE tournament_id = $1`
	if sortByRank {
		query += ` ORDER BY rank_position ASC, id ASC`
	} else {
		// id ASC keeps equal score/kills pairs in insertion order, which
		// makes recalculation deterministic.
		query += ` ORDER BY id ASC`
	}

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		e, errScan := r.scanEntry(rows)
		if errScan != nil {
			return nil, errScan
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresLeaderboardRepository) UpdateStats(ctx context.Context, entry *models.LeaderboardEntry) error {
	query := `
		UPDATE leaderboard_entries SET
			team_id = $1, score = $2, kills = $3, deaths = $4, assists = $5,
			headshots = $6, matches_played = $7, wins = $8, avg_damage = $9,
			survival_time = $10, kd_ratio = $11, updated_at = NOW()
		WHERE id = $12`
	result, err := r.db.ExecContext(ctx, query,
		entry.TeamID, entry.Score, entry.Kills, entry.Deaths, entry.Assists,
		entry.Headshots, entry.MatchesPlayed, entry.Wins, entry.AvgDamage,
		entry.SurvivalTime, entry.KDRatio, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leaderboard stats: %w", err)
	}
	return checkAffectedRows(result, ErrLeaderboardEntryNotFound)
}

func (r *postgresLeaderboardRepository) UpdateRanks(ctx context.Context, exec SQLExecutor, entries []*models.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	stmt, err := executor.PrepareContext(ctx, `
		UPDATE leaderboard_entries SET rank_position = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("UpdateRanks failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.RankPosition, entry.ID); err != nil {
			return fmt.Errorf("UpdateRanks failed for entry %d: %w", entry.ID, err)
		}
	}
	return nil
}

func (r *postgresLeaderboardRepository) SetDisqualified(ctx context.Context, id int, disqualified bool, reason *string) error {
	query := `
		UPDATE leaderboard_entries
		SET is_disqualified = $1, dq_reason = $2, updated_at = NOW()
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, disqualified, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update disqualification: %w", err)
	}
	return checkAffectedRows(result, ErrLeaderboardEntryNotFound)
}

func (r *postgresLeaderboardRepository) SetPrize(ctx context.Context, id int, amount int) error {
	query := `
		UPDATE leaderboard_entries
		SET prize_won = $1, prize_distributed = TRUE, updated_at = NOW()
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to set prize: %w", err)
	}
	return checkAffectedRows(result, ErrLeaderboardEntryNotFound)
}

func (r *postgresLeaderboardRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leaderboard_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leaderboard entry: %w", err)
	}
	return checkAffectedRows(result, ErrLeaderboardEntryNotFound)
}
