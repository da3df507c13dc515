package services

import (
	"context"
	"errors"
	"testing"

	"github.com/esports-arena/platform/models"
)

func newLeaderboardFixture(t *testing.T) (*LeaderboardService, *fakeLeaderboardRepo, *fakeNotificationRepo, *models.Tournament) {
	t.Helper()
	tournamentRepo := newFakeTournamentRepo()
	tournament := openTournament(tournamentRepo, 100)
	repo := newFakeLeaderboardRepo()
	notifRepo := newFakeNotificationRepo()
	s := NewLeaderboardService(nil, repo, tournamentRepo, notifRepo, nil, testLogger())
	return s, repo, notifRepo, tournament
}

func seedEntry(t *testing.T, s *LeaderboardService, tournamentID, userID, score, kills, deaths int) *models.LeaderboardEntry {
	t.Helper()
	entry, err := s.CreateEntry(context.Background(), tournamentID, userID, UpsertLeaderboardStatsInput{
		Score:  score,
		Kills:  kills,
		Deaths: deaths,
	})
	if err != nil {
		t.Fatalf("seed entry for user %d: %v", userID, err)
	}
	return entry
}

func TestRankEntriesOrderingAndTieBreak(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)

	// score 100/kills 5, score 100/kills 8, score 80/kills 10
	a := seedEntry(t, s, tournament.ID, 1, 100, 5, 0)
	b := seedEntry(t, s, tournament.ID, 2, 100, 8, 0)
	c := seedEntry(t, s, tournament.ID, 3, 80, 10, 0)

	ranked, err := s.RecalculateRanks(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ranked))
	}
	if ranked[0].UserID != b.UserID || ranked[0].RankPosition != 1 {
		t.Fatalf("rank 1 must go to higher kills on equal score, got user %d at %d", ranked[0].UserID, ranked[0].RankPosition)
	}
	if ranked[1].UserID != a.UserID || ranked[1].RankPosition != 2 {
		t.Fatalf("rank 2 wrong: user %d at %d", ranked[1].UserID, ranked[1].RankPosition)
	}
	if ranked[2].UserID != c.UserID || ranked[2].RankPosition != 3 {
		t.Fatalf("rank 3 wrong: user %d at %d", ranked[2].UserID, ranked[2].RankPosition)
	}
}

func TestRankEntriesStableOnFullTie(t *testing.T) {
	entries := []*models.LeaderboardEntry{
		{ID: 1, Score: 50, Kills: 3},
		{ID: 2, Score: 50, Kills: 3},
		{ID: 3, Score: 50, Kills: 3},
	}
	rankEntries(entries)
	for i, entry := range entries {
		if entry.ID != i+1 {
			t.Fatalf("full tie must keep input order, position %d holds entry %d", i, entry.ID)
		}
		if entry.RankPosition != i+1 {
			t.Fatalf("ranks must be dense from 1, got %d at position %d", entry.RankPosition, i)
		}
	}
}

func TestRecalculateRanksIsIdempotent(t *testing.T) {
	s, repo, _, tournament := newLeaderboardFixture(t)
	seedEntry(t, s, tournament.ID, 1, 100, 5, 0)
	seedEntry(t, s, tournament.ID, 2, 90, 2, 0)

	first, err := s.RecalculateRanks(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("first recalculate: %v", err)
	}
	second, err := s.RecalculateRanks(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	for i := range first {
		if first[i].UserID != second[i].UserID || first[i].RankPosition != second[i].RankPosition {
			t.Fatalf("recalculation is not idempotent: %+v vs %+v", first[i], second[i])
		}
	}
	if repo.updateRanksCalls != 2 {
		t.Fatalf("expected 2 rank writes, got %d", repo.updateRanksCalls)
	}
}

func TestDisqualifiedEntriesKeepRankNumbering(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)
	top := seedEntry(t, s, tournament.ID, 1, 100, 9, 0)
	seedEntry(t, s, tournament.ID, 2, 60, 4, 0)

	if _, err := s.Disqualify(context.Background(), top.ID, "stream sniping"); err != nil {
		t.Fatalf("disqualify: %v", err)
	}
	ranked, err := s.RecalculateRanks(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if !ranked[0].IsDisqualified || ranked[0].RankPosition != 1 {
		t.Fatalf("disqualified leader must keep rank 1, got %+v", ranked[0])
	}
	if ranked[1].RankPosition != 2 {
		t.Fatalf("next entry must stay at rank 2, got %d", ranked[1].RankPosition)
	}
}

func TestDisqualifyRequiresReason(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)
	entry := seedEntry(t, s, tournament.ID, 1, 10, 1, 0)

	if _, err := s.Disqualify(context.Background(), entry.ID, ""); !errors.Is(err, ErrDisqualifyReasonRequired) {
		t.Fatalf("expected ErrDisqualifyReasonRequired, got %v", err)
	}
}

func TestRequalifyClearsReason(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)
	entry := seedEntry(t, s, tournament.ID, 1, 10, 1, 0)

	if _, err := s.Disqualify(context.Background(), entry.ID, "teaming"); err != nil {
		t.Fatalf("disqualify: %v", err)
	}
	requalified, err := s.Requalify(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("requalify: %v", err)
	}
	if requalified.IsDisqualified || requalified.DQReason != nil {
		t.Fatalf("requalify must clear the flag and reason, got %+v", requalified)
	}
}

func TestDistributePrize(t *testing.T) {
	s, _, notifRepo, tournament := newLeaderboardFixture(t)
	entry := seedEntry(t, s, tournament.ID, 7, 10, 1, 0)

	if _, err := s.DistributePrize(context.Background(), entry.ID, -50); !errors.Is(err, ErrInvalidPrizeAmount) {
		t.Fatalf("expected ErrInvalidPrizeAmount for negative amount, got %v", err)
	}

	awarded, err := s.DistributePrize(context.Background(), entry.ID, 5000)
	if err != nil {
		t.Fatalf("distribute prize: %v", err)
	}
	if awarded.PrizeWon != 5000 || !awarded.PrizeSent {
		t.Fatalf("prize not recorded: %+v", awarded)
	}

	notifications, _ := notifRepo.ListByUser(context.Background(), 7, false)
	if len(notifications) != 1 || notifications[0].Type != models.NotificationTournament {
		t.Fatalf("expected one tournament notification, got %+v", notifications)
	}

	// Повторная выплата перезаписывает сумму и шлёт уведомление ещё раз.
	if _, err := s.DistributePrize(context.Background(), entry.ID, 7000); err != nil {
		t.Fatalf("repeat distribute: %v", err)
	}
	notifications, _ = notifRepo.ListByUser(context.Background(), 7, false)
	if len(notifications) != 2 {
		t.Fatalf("expected repeat notification, got %d", len(notifications))
	}
}

func TestCreateEntryConflict(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)
	seedEntry(t, s, tournament.ID, 1, 10, 1, 0)

	_, err := s.CreateEntry(context.Background(), tournament.ID, 1, UpsertLeaderboardStatsInput{})
	if !errors.Is(err, ErrLeaderboardUserConflict) {
		t.Fatalf("expected ErrLeaderboardUserConflict, got %v", err)
	}
}

func TestUpdateStatsRecomputesKD(t *testing.T) {
	s, _, _, tournament := newLeaderboardFixture(t)
	entry := seedEntry(t, s, tournament.ID, 1, 10, 8, 2)
	if entry.KDRatio != 4 {
		t.Fatalf("expected KD 4 on create, got %v", entry.KDRatio)
	}

	updated, err := s.UpdateStats(context.Background(), entry.ID, UpsertLeaderboardStatsInput{
		Score: 20, Kills: 9, Deaths: 0,
	})
	if err != nil {
		t.Fatalf("update stats: %v", err)
	}
	if updated.KDRatio != 9 {
		t.Fatalf("zero deaths must yield KD equal to kills, got %v", updated.KDRatio)
	}
}

func TestRecalculateUnknownTournament(t *testing.T) {
	s, _, _, _ := newLeaderboardFixture(t)
	if _, err := s.RecalculateRanks(context.Background(), 404); !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("expected ErrTournamentNotFound, got %v", err)
	}
}
