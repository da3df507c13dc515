package models

import "time"

// EnrollmentStatus — статус оплаты заявки. pending является начальным,
// completed и rejected — терминальные.
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusRejected  EnrollmentStatus = "rejected"
)

// Enrollment представляет заявку игрока на участие в турнире.
// TeamID заполняется только при одобрении оплаты.
type Enrollment struct {
	ID            int              `json:"id" db:"id"`
	TournamentID  int              `json:"tournament_id" db:"tournament_id"`
	UserID        int              `json:"user_id" db:"user_id"`
	GameNickname  string           `json:"game_nickname" db:"game_nickname"`
	GameUID       string           `json:"game_uid" db:"game_uid"`
	ContactPhone  string           `json:"contact_phone" db:"contact_phone"`
	ContactEmail  string           `json:"contact_email" db:"contact_email"`
	TransactionID string           `json:"transaction_id" db:"transaction_id"`
	PaymentStatus EnrollmentStatus `json:"payment_status" db:"payment_status"`
	TeamID        *string          `json:"team_id,omitempty" db:"team_id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	DecidedAt     *time.Time       `json:"decided_at,omitempty" db:"decided_at"`
}

func (e *Enrollment) IsDecided() bool {
	return e.PaymentStatus != EnrollmentStatusPending
}
