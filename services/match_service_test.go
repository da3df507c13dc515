package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/esports-arena/platform/models"
)

func newMatchFixture(t *testing.T) (*MatchService, *fakeMatchRepo, *models.Tournament) {
	t.Helper()
	tournamentRepo := newFakeTournamentRepo()
	tournament := openTournament(tournamentRepo, 10)
	matchRepo := newFakeMatchRepo()
	s := NewMatchService(matchRepo, tournamentRepo, nil, testLogger())
	return s, matchRepo, tournament
}

func createMatch(t *testing.T, s *MatchService, tournamentID int) *models.Match {
	t.Helper()
	match, err := s.Create(context.Background(), tournamentID, CreateMatchInput{
		Name:        "Qualifier 1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return match
}

func TestMatchTransitionTable(t *testing.T) {
	cases := []struct {
		from    models.MatchStatus
		to      models.MatchStatus
		allowed bool
	}{
		{models.MatchStatusScheduled, models.MatchStatusLive, true},
		{models.MatchStatusScheduled, models.MatchStatusCancelled, true},
		{models.MatchStatusScheduled, models.MatchStatusCompleted, false},
		{models.MatchStatusLive, models.MatchStatusCompleted, true},
		{models.MatchStatusLive, models.MatchStatusCancelled, true},
		{models.MatchStatusLive, models.MatchStatusScheduled, false},
		{models.MatchStatusCompleted, models.MatchStatusLive, false},
		{models.MatchStatusCompleted, models.MatchStatusCancelled, false},
		{models.MatchStatusCancelled, models.MatchStatusScheduled, false},
		{models.MatchStatusCancelled, models.MatchStatusLive, false},
	}
	for _, c := range cases {
		if got := isValidMatchTransition(c.from, c.to); got != c.allowed {
			t.Fatalf("transition %s -> %s: got %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestUpdateStatusStampsTimestamps(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	live, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusLive)
	if err != nil {
		t.Fatalf("scheduled -> live: %v", err)
	}
	if live.StartedAt == nil {
		t.Fatalf("started_at must be stamped on going live")
	}
	if live.EndedAt != nil {
		t.Fatalf("ended_at must stay empty while live")
	}

	done, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusCompleted)
	if err != nil {
		t.Fatalf("live -> completed: %v", err)
	}
	if done.EndedAt == nil {
		t.Fatalf("ended_at must be stamped on completion")
	}
	if done.StartedAt == nil {
		t.Fatalf("started_at must survive completion")
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	if _, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusCompleted); !errors.Is(err, ErrInvalidMatchTransition) {
		t.Fatalf("expected ErrInvalidMatchTransition for scheduled -> completed, got %v", err)
	}
}

func TestUpdateStatusConcurrentModification(t *testing.T) {
	s, matchRepo, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	// Конкурирующая запись отменяет матч между чтением сервиса и
	// условным UPDATE.
	wrapped := &flippingMatchRepo{fakeMatchRepo: matchRepo, flipOnRead: match.ID}
	racy := NewMatchService(wrapped, newFakeTournamentRepo(), nil, testLogger())
	if _, err := racy.UpdateStatus(context.Background(), match.ID, models.MatchStatusLive); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
}

// flippingMatchRepo отдаёт матч как scheduled, а затем меняет статус в
// хранилище, имитируя конкурентную запись между чтением и UPDATE.
type flippingMatchRepo struct {
	*fakeMatchRepo
	flipOnRead int
}

func (r *flippingMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := r.fakeMatchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if id == r.flipOnRead {
		snapshot := *m
		m.Status = models.MatchStatusCancelled
		return &snapshot, nil
	}
	return m, nil
}

func TestUpdateDetailsLockedAfterStart(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	if _, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusLive); err != nil {
		t.Fatalf("go live: %v", err)
	}
	_, err := s.UpdateDetails(context.Background(), match.ID, UpdateMatchDetailsInput{
		Name:        "Renamed",
		ScheduledAt: time.Now().Add(2 * time.Hour),
	})
	if !errors.Is(err, ErrMatchDetailsLocked) {
		t.Fatalf("expected ErrMatchDetailsLocked, got %v", err)
	}
}

func TestRecordResultRequiresCompleted(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)
	result := &models.MatchResult{WinnerTeamID: "WIN101"}

	if _, err := s.RecordResult(context.Background(), match.ID, result); !errors.Is(err, ErrMatchResultNotRecordable) {
		t.Fatalf("expected ErrMatchResultNotRecordable for scheduled match, got %v", err)
	}

	if _, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusLive); err != nil {
		t.Fatalf("go live: %v", err)
	}
	if _, err := s.RecordResult(context.Background(), match.ID, result); !errors.Is(err, ErrMatchResultNotRecordable) {
		t.Fatalf("expected ErrMatchResultNotRecordable for live match, got %v", err)
	}

	if _, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	recorded, err := s.RecordResult(context.Background(), match.ID, result)
	if err != nil {
		t.Fatalf("record result: %v", err)
	}
	if recorded.Result == nil || recorded.Result.WinnerTeamID != "WIN101" {
		t.Fatalf("result not stored: %+v", recorded.Result)
	}
}

func TestRecordResultRequiresWinner(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	if _, err := s.RecordResult(context.Background(), match.ID, &models.MatchResult{}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for empty winner, got %v", err)
	}
}

func TestSetRoomAnyStatus(t *testing.T) {
	s, _, tournament := newMatchFixture(t)
	match := createMatch(t, s, tournament.ID)

	if _, err := s.UpdateStatus(context.Background(), match.ID, models.MatchStatusLive); err != nil {
		t.Fatalf("go live: %v", err)
	}
	roomID, roomPassword := "room-77", "hunter2"
	updated, err := s.SetRoom(context.Background(), match.ID, &roomID, &roomPassword)
	if err != nil {
		t.Fatalf("set room: %v", err)
	}
	if updated.RoomID == nil || *updated.RoomID != roomID {
		t.Fatalf("room id not set: %v", updated.RoomID)
	}
}

func TestMatchCreateUnknownTournament(t *testing.T) {
	s := NewMatchService(newFakeMatchRepo(), newFakeTournamentRepo(), nil, testLogger())
	_, err := s.Create(context.Background(), 99, CreateMatchInput{
		Name:        "Qualifier",
		ScheduledAt: time.Now(),
	})
	if !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("expected ErrTournamentNotFound, got %v", err)
	}
}
