package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/esports-arena/platform/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament invalid")
	// ErrMatchStatusMismatch is returned by TransitionStatus when the row
	// exists but no longer has the expected status.
	ErrMatchStatusMismatch = errors.New("match status changed concurrently")
)

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	// TransitionStatus conditionally moves the match from one status to
	// another, stamping started_at/ended_at when the corresponding pointer
	// is non-nil.
	TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus, startedAt, endedAt *time.Time) error
	UpdateRoom(ctx context.Context, id int, roomID, roomPassword *string) error
	UpdateDetails(ctx context.Context, m *models.Match) error
	UpdateResult(ctx context.Context, id int, result *models.MatchResult) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, name, match_number, scheduled_at,
	team1_id, team2_id, room_id, room_password,
	status, started_at, ended_at, result, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, name, match_number, scheduled_at, team1_id, team2_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID, m.Name, m.MatchNumber, m.ScheduledAt, m.Team1ID, m.Team2ID, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchTournamentInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var resultRaw []byte
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.Name, &m.MatchNumber, &m.ScheduledAt,
		&m.Team1ID, &m.Team2ID, &m.RoomID, &m.RoomPassword,
		&m.Status, &m.StartedAt, &m.EndedAt, &resultRaw, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if len(resultRaw) > 0 {
		var res models.MatchResult
		if err := json.Unmarshal(resultRaw, &res); err != nil {
			return nil, fmt.Errorf("failed to decode match result for match %d: %w", m.ID, err)
		}
		m.Result = &res
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY scheduled_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus, startedAt, endedAt *time.Time) error {
	query := `
		UPDATE matches
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    ended_at = COALESCE($3, ended_at)
		WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, startedAt, endedAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusMismatch)
}

func (r *postgresMatchRepository) UpdateRoom(ctx context.Context, id int, roomID, roomPassword *string) error {
	query := `UPDATE matches SET room_id = $1, room_password = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, roomID, roomPassword, id)
	if err != nil {
		return fmt.Errorf("failed to update match room: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateDetails(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET name = $1, match_number = $2, scheduled_at = $3, team1_id = $4, team2_id = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		m.Name, m.MatchNumber, m.ScheduledAt, m.Team1ID, m.Team2ID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match details: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, id int, result *models.MatchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode match result: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE matches SET result = $1 WHERE id = $2`, raw, id)
	if err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
