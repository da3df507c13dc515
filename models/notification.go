package models

import "time"

type NotificationType string

const (
	NotificationInfo       NotificationType = "info"
	NotificationSuccess    NotificationType = "success"
	NotificationWarning    NotificationType = "warning"
	NotificationMatch      NotificationType = "match"
	NotificationTournament NotificationType = "tournament"
)

type Notification struct {
	ID           int              `json:"id" db:"id"`
	UserID       int              `json:"user_id" db:"user_id"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	Type         NotificationType `json:"type" db:"type"`
	TournamentID *int             `json:"tournament_id,omitempty" db:"tournament_id"`
	Read         bool             `json:"read" db:"read"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
