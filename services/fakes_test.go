package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakeTournamentRepo ---

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	for _, existing := range r.tournaments {
		if existing.Slug == t.Slug {
			return repositories.ErrTournamentSlugConflict
		}
	}
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (r *fakeTournamentRepo) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	for _, t := range r.tournaments {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if status == nil || t.Status == *status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok || t.Status != from {
		return repositories.ErrTournamentStatusMismatch
	}
	t.Status = to
	return nil
}

func (r *fakeTournamentRepo) IncrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	t, ok := r.tournaments[id]
	if !ok || t.CurrentParticipants >= t.MaxParticipants {
		return repositories.ErrTournamentCapacityFull
	}
	t.CurrentParticipants++
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, id int, key *string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = key
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

// --- fakeEnrollmentRepo ---

type fakeEnrollmentRepo struct {
	enrollments map[int]*models.Enrollment
	nextID      int
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[int]*models.Enrollment), nextID: 1}
}

func (r *fakeEnrollmentRepo) Create(ctx context.Context, e *models.Enrollment) error {
	for _, existing := range r.enrollments {
		if existing.TournamentID == e.TournamentID && existing.UserID == e.UserID {
			return repositories.ErrEnrollmentConflict
		}
	}
	e.ID = r.nextID
	r.nextID++
	e.CreatedAt = time.Now()
	r.enrollments[e.ID] = e
	return nil
}

func (r *fakeEnrollmentRepo) FindByID(ctx context.Context, id int) (*models.Enrollment, error) {
	e, ok := r.enrollments[id]
	if !ok {
		return nil, repositories.ErrEnrollmentNotFound
	}
	return e, nil
}

func (r *fakeEnrollmentRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.UserID == userID && e.TournamentID == tournamentID {
			return e, nil
		}
	}
	return nil, repositories.ErrEnrollmentNotFound
}

func (r *fakeEnrollmentRepo) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.EnrollmentStatus) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range r.enrollments {
		if e.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && e.PaymentStatus != *statusFilter {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEnrollmentRepo) ListByUser(ctx context.Context, userID int) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEnrollmentRepo) Decide(ctx context.Context, exec repositories.SQLExecutor, id int, status models.EnrollmentStatus, teamID *string, decidedAt time.Time) error {
	e, ok := r.enrollments[id]
	if !ok || e.PaymentStatus != models.EnrollmentStatusPending {
		return repositories.ErrEnrollmentNotPending
	}
	e.PaymentStatus = status
	e.TeamID = teamID
	e.DecidedAt = &decidedAt
	return nil
}

func (r *fakeEnrollmentRepo) ListTeamIDsByTournament(ctx context.Context, tournamentID int) ([]string, error) {
	var out []string
	for _, e := range r.enrollments {
		if e.TournamentID == tournamentID && e.TeamID != nil {
			out = append(out, *e.TeamID)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) CountByTournamentAndStatus(ctx context.Context, tournamentID int, status models.EnrollmentStatus) (int, error) {
	count := 0
	for _, e := range r.enrollments {
		if e.TournamentID == tournamentID && e.PaymentStatus == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeEnrollmentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.enrollments[id]; !ok {
		return repositories.ErrEnrollmentNotFound
	}
	delete(r.enrollments, id)
	return nil
}

// --- fakeMatchRepo ---

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, m *models.Match) error {
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = time.Now()
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus, startedAt, endedAt *time.Time) error {
	m, ok := r.matches[id]
	if !ok || m.Status != from {
		return repositories.ErrMatchStatusMismatch
	}
	m.Status = to
	if startedAt != nil {
		m.StartedAt = startedAt
	}
	if endedAt != nil {
		m.EndedAt = endedAt
	}
	return nil
}

func (r *fakeMatchRepo) UpdateRoom(ctx context.Context, id int, roomID, roomPassword *string) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.RoomID = roomID
	m.RoomPassword = roomPassword
	return nil
}

func (r *fakeMatchRepo) UpdateDetails(ctx context.Context, m *models.Match) error {
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, id int, result *models.MatchResult) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Result = result
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

// --- fakeLeaderboardRepo ---

type fakeLeaderboardRepo struct {
	entries map[int]*models.LeaderboardEntry
	nextID  int

	updateRanksCalls int
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: make(map[int]*models.LeaderboardEntry), nextID: 1}
}

func (r *fakeLeaderboardRepo) Create(ctx context.Context, entry *models.LeaderboardEntry) error {
	for _, existing := range r.entries {
		if existing.TournamentID == entry.TournamentID && existing.UserID == entry.UserID {
			return repositories.ErrLeaderboardEntryConflict
		}
	}
	entry.ID = r.nextID
	r.nextID++
	entry.UpdatedAt = time.Now()
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeLeaderboardRepo) GetByID(ctx context.Context, id int) (*models.LeaderboardEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrLeaderboardEntryNotFound
	}
	return entry, nil
}

func (r *fakeLeaderboardRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, sortByRank bool) ([]*models.LeaderboardEntry, error) {
	var out []*models.LeaderboardEntry
	for _, entry := range r.entries {
		if entry.TournamentID == tournamentID {
			out = append(out, entry)
		}
	}
	if sortByRank {
		sort.Slice(out, func(i, j int) bool { return out[i].RankPosition < out[j].RankPosition })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out, nil
}

func (r *fakeLeaderboardRepo) UpdateStats(ctx context.Context, entry *models.LeaderboardEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return repositories.ErrLeaderboardEntryNotFound
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeLeaderboardRepo) UpdateRanks(ctx context.Context, exec repositories.SQLExecutor, entries []*models.LeaderboardEntry) error {
	r.updateRanksCalls++
	for _, entry := range entries {
		stored, ok := r.entries[entry.ID]
		if !ok {
			return repositories.ErrLeaderboardEntryNotFound
		}
		stored.RankPosition = entry.RankPosition
	}
	return nil
}

func (r *fakeLeaderboardRepo) SetDisqualified(ctx context.Context, id int, disqualified bool, reason *string) error {
	entry, ok := r.entries[id]
	if !ok {
		return repositories.ErrLeaderboardEntryNotFound
	}
	entry.IsDisqualified = disqualified
	entry.DQReason = reason
	return nil
}

func (r *fakeLeaderboardRepo) SetPrize(ctx context.Context, id int, amount int) error {
	entry, ok := r.entries[id]
	if !ok {
		return repositories.ErrLeaderboardEntryNotFound
	}
	entry.PrizeWon = amount
	entry.PrizeSent = true
	return nil
}

func (r *fakeLeaderboardRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.entries[id]; !ok {
		return repositories.ErrLeaderboardEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

// --- fakeNotificationRepo ---

type fakeNotificationRepo struct {
	notifications []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = len(r.notifications) + 1
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID int) error {
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int) error {
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

// --- fakeUserRepo ---

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	// Храним снимок: реальный репозиторий возвращает свежие структуры,
	// поэтому мутации вызывающего кода не должны менять хранилище.
	snapshot := *user
	r.users[user.ID] = &snapshot
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	snapshot := *user
	return &snapshot, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			snapshot := *user
			return &snapshot, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}
