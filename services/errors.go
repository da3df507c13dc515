package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password is too short")
	ErrInvalidCredentials        = errors.New("invalid email or password")
	ErrRegistrationNotOpen       = errors.New("tournament registration is not open")
	ErrTournamentFull            = errors.New("tournament registration is full")
	ErrAlreadyEnrolled           = errors.New("user is already enrolled in this tournament")
	ErrDisqualifyReasonRequired  = errors.New("disqualification requires a reason")
	ErrInvalidPrizeAmount        = errors.New("prize amount must be a non-negative number")
	ErrMatchResultNotRecordable  = errors.New("match result can only be recorded after completion")
	ErrMatchDetailsLocked        = errors.New("match details can only be edited while scheduled")
	ErrTournamentDatesRequired   = errors.New("tournament dates are required")
	ErrTournamentInvalidRegDate  = errors.New("registration window must close before the tournament starts")
	ErrTournamentInvalidDates    = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity = errors.New("tournament max participants must be positive")

	// Ошибки переходов состояний
	ErrEnrollmentAlreadyDecided          = errors.New("enrollment has already been decided")
	ErrInvalidMatchTransition            = errors.New("invalid match status transition")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	// ErrConcurrentModification means the optimistic precondition failed:
	// the record state changed between read and write. The caller should
	// re-read and retry the whole operation.
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrTeamIDExhausted        = errors.New("could not generate a unique team id")

	// Ошибки конфликтов
	ErrUserEmailConflict       = errors.New("email address is already in use")
	ErrTournamentSlugConflict  = errors.New("tournament slug is already in use")
	ErrLeaderboardUserConflict = errors.New("user already has a leaderboard entry in this tournament")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound             = errors.New("user not found")
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrEnrollmentNotFound       = errors.New("enrollment not found")
	ErrMatchNotFound            = errors.New("match not found")
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
)
