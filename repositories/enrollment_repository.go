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
	ErrEnrollmentNotFound          = errors.New("enrollment not found")
	ErrEnrollmentConflict          = errors.New("user already enrolled in this tournament")
	ErrEnrollmentTournamentInvalid = errors.New("enrollment tournament invalid")
	ErrEnrollmentUserInvalid       = errors.New("enrollment user invalid")
	// ErrEnrollmentNotPending is returned by Decide when the row exists but
	// its payment_status is no longer pending. The two cases are told apart
	// by the caller re-reading the row.
	ErrEnrollmentNotPending = errors.New("enrollment is not pending")
)

type EnrollmentRepository interface {
	Create(ctx context.Context, e *models.Enrollment) error
	FindByID(ctx context.Context, id int) (*models.Enrollment, error)
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Enrollment, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.EnrollmentStatus) ([]*models.Enrollment, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Enrollment, error)
	// Decide flips a pending enrollment to a terminal status. The WHERE
	// clause re-checks pending status so stale reads cannot double-decide.
	Decide(ctx context.Context, exec SQLExecutor, id int, status models.EnrollmentStatus, teamID *string, decidedAt time.Time) error
	ListTeamIDsByTournament(ctx context.Context, tournamentID int) ([]string, error)
	CountByTournamentAndStatus(ctx context.Context, tournamentID int, status models.EnrollmentStatus) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresEnrollmentRepository struct {
	db *sql.DB
}

func NewPostgresEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &postgresEnrollmentRepository{db: db}
}

const enrollmentColumns = `
	id, tournament_id, user_id, game_nickname, game_uid,
	contact_phone, contact_email, transaction_id,
	payment_status, team_id, created_at, decided_at`

func (r *postgresEnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	query := `
		INSERT INTO enrollments
			(tournament_id, user_id, game_nickname, game_uid,
			 contact_phone, contact_email, transaction_id, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		e.TournamentID, e.UserID, e.GameNickname, e.GameUID,
		e.ContactPhone, e.ContactEmail, e.TransactionID, e.PaymentStatus,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrEnrollmentConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "enrollments_tournament_id_fkey":
					return ErrEnrollmentTournamentInvalid
				case "enrollments_user_id_fkey":
					return ErrEnrollmentUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

func (r *postgresEnrollmentRepository) scanEnrollment(rowScanner interface{ Scan(...interface{}) error }) (*models.Enrollment, error) {
	var e models.Enrollment
	err := rowScanner.Scan(
		&e.ID, &e.TournamentID, &e.UserID, &e.GameNickname, &e.GameUID,
		&e.ContactPhone, &e.ContactEmail, &e.TransactionID,
		&e.PaymentStatus, &e.TeamID, &e.CreatedAt, &e.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresEnrollmentRepository) FindByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	return r.scanEnrollment(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEnrollmentRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND tournament_id = $2`
	return r.scanEnrollment(r.db.QueryRowContext(ctx, query, userID, tournamentID))
}

func (r *postgresEnrollmentRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.EnrollmentStatus) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += ` AND payment_status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at ASC`
	return r.queryEnrollments(ctx, query, args...)
}

func (r *postgresEnrollmentRepository) ListByUser(ctx context.Context, userID int) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryEnrollments(ctx, query, userID)
}

func (r *postgresEnrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]*models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, errScan := r.scanEnrollment(rows)
		if errScan != nil {
			return nil, errScan
		}
		enrollments = append(enrollments, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *postgresEnrollmentRepository) Decide(ctx context.Context, exec SQLExecutor, id int, status models.EnrollmentStatus, teamID *string, decidedAt time.Time) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `
		UPDATE enrollments
		SET payment_status = $1, team_id = $2, decided_at = $3
		WHERE id = $4 AND payment_status = $5`
	result, err := executor.ExecContext(ctx, query, status, teamID, decidedAt, id, models.EnrollmentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to decide enrollment %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEnrollmentNotPending)
}

func (r *postgresEnrollmentRepository) ListTeamIDsByTournament(ctx context.Context, tournamentID int) ([]string, error) {
	query := `SELECT team_id FROM enrollments WHERE tournament_id = $1 AND team_id IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresEnrollmentRepository) CountByTournamentAndStatus(ctx context.Context, tournamentID int, status models.EnrollmentStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM enrollments WHERE tournament_id = $1 AND payment_status = $2`
	err := r.db.QueryRowContext(ctx, query, tournamentID, status).Scan(&count)
	return count, err
}

func (r *postgresEnrollmentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return checkAffectedRows(result, ErrEnrollmentNotFound)
}
