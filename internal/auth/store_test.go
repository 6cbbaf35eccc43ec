package auth

import (
	"context"
	"testing"
	"time"

	"quizduel/internal/game"
	"quizduel/internal/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticate(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	u, err := s.Create("  Alice ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
	assert.Equal(t, InitialElo, u.Elo)
	assert.Equal(t, 1, u.Level)
	assert.NotEmpty(t, u.ID)

	got, err := s.Authenticate("alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate("alice", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateValidation(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.Create("al", "secret1")
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = s.Create("alice", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = s.Create("alice", "secret1")
	require.NoError(t, err)
	_, err = s.Create("ALICE", "secret2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestStorePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	u, err := s.Create("alice", "secret1")
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.GetByUsername("ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = reopened.Authenticate("alice", "secret1")
	assert.NoError(t, err)
}

func TestGetUnknownUser(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.GetByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetByUsername("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func record(host, guest *User, hostScore, guestScore int) match.MatchRecord {
	policy := game.DefaultPolicy()
	side := func(u *User, mine, theirs int) match.PlayerRecord {
		oc := game.OutcomeTie
		if mine > theirs {
			oc = game.OutcomeWin
		} else if mine < theirs {
			oc = game.OutcomeLoss
		}
		return match.PlayerRecord{UserID: u.ID, Username: u.Username, Authenticated: true, Score: mine, XP: policy.XP(mine, oc), Outcome: oc}
	}
	return match.MatchRecord{Code: "ABCDEF", Host: side(host, hostScore, guestScore), Guest: side(guest, guestScore, hostScore)}
}

func TestRecordMatchCreditsBothSides(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, err := s.Create("alice", "secret1")
	require.NoError(t, err)
	bob, err := s.Create("bob", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.RecordMatch(context.Background(), record(alice, bob, 90, 40)))

	a, err := s.GetByID(alice.ID)
	require.NoError(t, err)
	b, err := s.GetByID(bob.ID)
	require.NoError(t, err)

	assert.Equal(t, 90+50+30, a.XP)
	assert.Equal(t, 40, b.XP)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 1, b.Losses)
	assert.Equal(t, 1, a.Games)
	assert.Equal(t, 1, b.Games)
	assert.Equal(t, InitialElo+16, a.Elo)
	assert.Equal(t, InitialElo-16, b.Elo)
}

func TestRecordMatchTie(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, _ := s.Create("alice", "secret1")
	bob, _ := s.Create("bob", "secret1")

	require.NoError(t, s.RecordMatch(context.Background(), record(alice, bob, 30, 30)))

	a, _ := s.GetByID(alice.ID)
	b, _ := s.GetByID(bob.ID)
	assert.Equal(t, 1, a.Ties)
	assert.Equal(t, 1, b.Ties)
	assert.Equal(t, InitialElo, a.Elo)
	assert.Equal(t, 30, a.XP)
}

func TestRecordMatchSkipsAnonymousSide(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, _ := s.Create("alice", "secret1")
	anon := &User{ID: "conn-1234", Username: "Player"}

	rec := record(alice, anon, 20, 10)
	rec.Guest.Authenticated = false
	require.NoError(t, s.RecordMatch(context.Background(), rec))

	a, _ := s.GetByID(alice.ID)
	assert.Equal(t, 70, a.XP)
	assert.Equal(t, InitialElo, a.Elo, "unrated against anonymous players")
	assert.Equal(t, 1, s.Len())
}

func TestRecordMatchLevelsUp(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, _ := s.Create("alice", "secret1")
	bob, _ := s.Create("bob", "secret1")

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordMatch(context.Background(), record(alice, bob, 100, 0)))
	}
	a, _ := s.GetByID(alice.ID)
	assert.Equal(t, 3*(100+50+30), a.XP)
	assert.Equal(t, 3, a.Level)
}

func TestRecordMatchHonoursContext(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.RecordMatch(ctx, match.MatchRecord{}), context.Canceled)
}

func TestUsersByXP(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, _ := s.Create("alice", "secret1")
	bob, _ := s.Create("bob", "secret1")
	_, _ = s.Create("carol", "secret1")
	require.NoError(t, s.RecordMatch(context.Background(), record(bob, alice, 50, 20)))

	all := s.UsersByXP("")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"bob", "alice", "carol"}, []string{all[0].Username, all[1].Username, all[2].Username})

	filtered := s.UsersByXP("AR")
	require.Len(t, filtered, 1)
	assert.Equal(t, "carol", filtered[0].Username)
}

func TestRecordMatchIgnoresUnverifiedIdentities(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	victim, _ := s.Create("victim", "secret1")
	rival, _ := s.Create("rival", "secret1")

	rec := record(rival, victim, 10, 0)
	rec.Host.Authenticated = false
	rec.Guest.Authenticated = false
	require.NoError(t, s.RecordMatch(context.Background(), rec))

	for _, id := range []string{victim.ID, rival.ID} {
		u, err := s.GetByID(id)
		require.NoError(t, err)
		assert.Zero(t, u.Games)
		assert.Zero(t, u.XP)
		assert.Equal(t, InitialElo, u.Elo)
	}
}

func TestRecordMatchAwardsAchievements(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	alice, _ := s.Create("alice", "secret1")
	bob, _ := s.Create("bob", "secret1")

	rec := record(alice, bob, 50, 30)
	rec.Host.Correct, rec.Host.Questions = 5, 5
	rec.Guest.Correct, rec.Guest.Questions = 3, 5
	require.NoError(t, s.RecordMatch(context.Background(), rec))
	require.NoError(t, s.RecordMatch(context.Background(), rec))

	a, _ := s.GetByID(alice.ID)
	b, _ := s.GetByID(bob.ID)
	assert.Equal(t, []string{"first_steps", "perfect_score"}, achievementIDs(a))
	assert.Equal(t, []string{"first_steps"}, achievementIDs(b), "each achievement is granted once")

	for i := 0; i < 8; i++ {
		require.NoError(t, s.RecordMatch(context.Background(), record(alice, bob, 0, 10)))
	}
	b, _ = s.GetByID(bob.ID)
	assert.Equal(t, 10, b.Games)
	assert.Contains(t, achievementIDs(b), "quiz_master")
}

func achievementIDs(u *User) []string {
	var ids []string
	for _, a := range u.Achievements {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestRecordLoginStreak(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return day }
	alice, err := s.Create("alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Streak)

	login := func(at time.Time) *User {
		t.Helper()
		s.now = func() time.Time { return at }
		u, err := s.RecordLogin(alice.ID)
		require.NoError(t, err)
		return u
	}

	assert.Equal(t, 1, login(day.Add(2*time.Hour)).Streak, "same day")
	var u *User
	for i := 1; i <= 6; i++ {
		u = login(day.Add(time.Duration(i)*24*time.Hour + 3*time.Hour))
	}
	assert.Equal(t, 7, u.Streak)
	assert.Contains(t, achievementIDs(u), "weekly_streak")

	u = login(u.LastLoginAt.Add(72 * time.Hour))
	assert.Equal(t, 1, u.Streak, "a missed day starts over")
	assert.Contains(t, achievementIDs(u), "weekly_streak", "achievements are kept")

	_, err = s.RecordLogin("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
