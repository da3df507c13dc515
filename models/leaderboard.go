package models

import "time"

// LeaderboardEntry — агрегированная статистика участника в рамках турнира.
// RankPosition пересчитывается пакетной операцией, а не при каждом
// изменении статистики.
type LeaderboardEntry struct {
	ID             int       `json:"id" db:"id"`
	TournamentID   int       `json:"tournament_id" db:"tournament_id"`
	UserID         int       `json:"user_id" db:"user_id"`
	TeamID         *string   `json:"team_id,omitempty" db:"team_id"`
	Score          int       `json:"score" db:"score"`
	Kills          int       `json:"kills" db:"kills"`
	Deaths         int       `json:"deaths" db:"deaths"`
	Assists        int       `json:"assists" db:"assists"`
	Headshots      int       `json:"headshots" db:"headshots"`
	MatchesPlayed  int       `json:"matches_played" db:"matches_played"`
	Wins           int       `json:"wins" db:"wins"`
	AvgDamage      float64   `json:"avg_damage" db:"avg_damage"`
	SurvivalTime   float64   `json:"survival_time" db:"survival_time"`
	KDRatio        float64   `json:"kd_ratio" db:"kd_ratio"`
	RankPosition   int       `json:"rank_position" db:"rank_position"`
	IsDisqualified bool      `json:"is_disqualified" db:"is_disqualified"`
	DQReason       *string   `json:"dq_reason,omitempty" db:"dq_reason"`
	PrizeWon       int       `json:"prize_won" db:"prize_won"`
	PrizeSent      bool      `json:"prize_distributed" db:"prize_distributed"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeKD возвращает kills/deaths; при нуле смертей коэффициент равен
// числу убийств, чтобы избежать деления на ноль.
func ComputeKD(kills, deaths int) float64 {
	if deaths > 0 {
		return float64(kills) / float64(deaths)
	}
	return float64(kills)
}
