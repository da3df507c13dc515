package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esports-arena/platform/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentSlugConflict   = errors.New("tournament slug already in use")
	ErrTournamentStatusMismatch = errors.New("tournament status changed concurrently")
	ErrTournamentCapacityFull   = errors.New("tournament has no free slots")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	// UpdateStatus is a conditional write keyed on the expected current
	// status. Zero affected rows yields ErrTournamentStatusMismatch.
	UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error
	// IncrementParticipants fails with ErrTournamentCapacityFull when the
	// tournament is already at max_participants.
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error
	UpdateBannerKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, title, slug, game_name, match_type, joining_fee,
	max_participants, current_participants, status,
	prize_winner, prize_runner_up, prize_third_place, prize_total,
	registration_open, registration_close, start_date, end_date,
	banner_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(title, slug, game_name, match_type, joining_fee, max_participants,
			 current_participants, status,
			 prize_winner, prize_runner_up, prize_third_place, prize_total,
			 registration_open, registration_close, start_date, end_date, banner_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Slug, t.GameName, t.MatchType, t.JoiningFee, t.MaxParticipants,
		t.CurrentParticipants, t.Status,
		t.PrizePool.Winner, t.PrizePool.RunnerUp, t.PrizePool.ThirdPlace, t.PrizePool.Total,
		t.RegistrationOpen, t.RegistrationClose, t.StartDate, t.EndDate, t.BannerKey,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTournamentSlugConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) scanTournament(rowScanner interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := rowScanner.Scan(
		&t.ID, &t.Title, &t.Slug, &t.GameName, &t.MatchType, &t.JoiningFee,
		&t.MaxParticipants, &t.CurrentParticipants, &t.Status,
		&t.PrizePool.Winner, &t.PrizePool.RunnerUp, &t.PrizePool.ThirdPlace, &t.PrizePool.Total,
		&t.RegistrationOpen, &t.RegistrationClose, &t.StartDate, &t.EndDate,
		&t.BannerKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE slug = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY start_date ASC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, errScan := r.scanTournament(rows)
		if errScan != nil {
			return nil, errScan
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			title = $1, game_name = $2, match_type = $3, joining_fee = $4,
			max_participants = $5,
			prize_winner = $6, prize_runner_up = $7, prize_third_place = $8, prize_total = $9,
			registration_open = $10, registration_close = $11, start_date = $12, end_date = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(ctx, query,
		t.Title, t.GameName, t.MatchType, t.JoiningFee,
		t.MaxParticipants,
		t.PrizePool.Winner, t.PrizePool.RunnerUp, t.PrizePool.ThirdPlace, t.PrizePool.Total,
		t.RegistrationOpen, t.RegistrationClose, t.StartDate, t.EndDate,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentStatusMismatch)
}

func (r *postgresTournamentRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `
		UPDATE tournaments
		SET current_participants = current_participants + 1
		WHERE id = $1 AND current_participants < max_participants`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment participants: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentCapacityFull)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET banner_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
