package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// TeamScore — очки одной команды в результате матча.
type TeamScore struct {
	TeamID string `json:"team_id"`
	Score  int    `json:"score"`
}

// MatchResult записывается отдельной операцией после завершения матча,
// автоматического подсчёта при переходе в completed нет.
type MatchResult struct {
	WinnerTeamID   string      `json:"winner_team_id"`
	RunnerUpTeamID string      `json:"runner_up_team_id,omitempty"`
	TeamScores     []TeamScore `json:"team_scores,omitempty"`
}

type Match struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Name         string       `json:"name" db:"name"`
	MatchNumber  *int         `json:"match_number,omitempty" db:"match_number"`
	ScheduledAt  time.Time    `json:"scheduled_at" db:"scheduled_at"`
	Team1ID      *string      `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *string      `json:"team2_id,omitempty" db:"team2_id"`
	RoomID       *string      `json:"room_id,omitempty" db:"room_id"`
	RoomPassword *string      `json:"room_password,omitempty" db:"room_password"`
	Status       MatchStatus  `json:"status" db:"status"`
	StartedAt    *time.Time   `json:"started_at,omitempty" db:"started_at"`
	EndedAt      *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
	Result       *MatchResult `json:"result,omitempty" db:"result"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
