package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentStatusUpcoming  TournamentStatus = "upcoming"
	TournamentStatusOngoing   TournamentStatus = "ongoing"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

type MatchType string

const (
	MatchTypeSolo  MatchType = "solo"
	MatchTypeDuo   MatchType = "duo"
	MatchTypeSquad MatchType = "squad"
)

// PrizePool хранит разбивку призового фонда. Total всегда вычисляется
// сервисом как сумма призовых мест и не принимается от клиента.
type PrizePool struct {
	Winner     int `json:"winner" db:"prize_winner"`
	RunnerUp   int `json:"runner_up" db:"prize_runner_up"`
	ThirdPlace int `json:"third_place" db:"prize_third_place"`
	Total      int `json:"total" db:"prize_total"`
}

// Tournament представляет турнир.
type Tournament struct {
	ID                  int              `json:"id" db:"id"`
	Title               string           `json:"title" db:"title"`
	Slug                string           `json:"slug" db:"slug"`
	GameName            string           `json:"game_name" db:"game_name"`
	MatchType           MatchType        `json:"match_type" db:"match_type"`
	JoiningFee          int              `json:"joining_fee" db:"joining_fee"`
	MaxParticipants     int              `json:"max_participants" db:"max_participants"`
	CurrentParticipants int              `json:"current_participants" db:"current_participants"`
	Status              TournamentStatus `json:"status" db:"status"`
	PrizePool           PrizePool        `json:"prize_pool"`
	RegistrationOpen    time.Time        `json:"registration_open" db:"registration_open"`
	RegistrationClose   time.Time        `json:"registration_close" db:"registration_close"`
	StartDate           time.Time        `json:"start_date" db:"start_date"`
	EndDate             time.Time        `json:"end_date" db:"end_date"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	BannerKey           *string          `json:"-" db:"banner_key"`
	BannerURL           *string          `json:"banner_url,omitempty" db:"-"`
}

// RegistrationIsOpen проверяет, открыто ли окно регистрации на момент now.
func (t *Tournament) RegistrationIsOpen(now time.Time) bool {
	if t.Status != TournamentStatusUpcoming && t.Status != TournamentStatusOngoing {
		return false
	}
	if now.Before(t.RegistrationOpen) || now.After(t.RegistrationClose) {
		return false
	}
	return true
}
