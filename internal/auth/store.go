package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"quizduel/internal/game"
	"quizduel/internal/match"
	"quizduel/internal/util"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

var (
	ErrInvalidUsername    = errors.New("username too short")
	ErrWeakPassword       = errors.New("weak password")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	XP           int       `json:"xp"`
	Level        int       `json:"level"`
	Elo          int       `json:"elo"`
	Games        int       `json:"games"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Ties         int       `json:"ties"`
	Streak       int       `json:"streak"`
	LastLoginAt  time.Time `json:"lastLoginAt"`

	Achievements []Achievement `json:"achievements"`
}

// Profile is the public view of a user
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	Elo       int       `json:"elo"`
	Games     int       `json:"games"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Ties      int       `json:"ties"`
	Streak    int       `json:"streak"`

	Achievements []Achievement `json:"achievements"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		XP:        u.XP,
		Level:     u.Level,
		Elo:       u.Elo,
		Games:     u.Games,
		Wins:      u.Wins,
		Losses:    u.Losses,
		Ties:      u.Ties,
		Streak:    u.Streak,

		Achievements: append([]Achievement{}, u.Achievements...),
	}
}

// clone copies u including its achievement list
func (u *User) clone() *User {
	cp := *u
	cp.Achievements = append([]Achievement(nil), u.Achievements...)
	return &cp
}

type Store struct {
	mu     sync.RWMutex     // guards maps
	byID   map[string]*User // users by id
	byName map[string]*User // users by lowercase username
	path   string           // path to users.json
	saveMu sync.Mutex       // one writer on the file at a time
	now    func() time.Time
}

// Open opens or creates the user store under dir and tries to load existing users from disk
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	p := filepath.Join(dir, "users.json")

	s := &Store{
		byID:   make(map[string]*User),
		byName: make(map[string]*User),
		path:   p,
		now:    time.Now,
	}

	// tries to load existing data
	if b, err := os.ReadFile(p); err == nil {
		var users []*User
		if err := json.Unmarshal(b, &users); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		for _, u := range users {
			if u.Level == 0 {
				u.Level = LevelFor(u.XP)
			}
			s.byID[u.ID] = u
			s.byName[strings.ToLower(u.Username)] = u
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// snapshotUsers copies all users so JSON encoding runs without the lock
func snapshotUsers(s *Store) []*User {
	s.mu.RLock()
	out := make([]*User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u.clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// save writes the current users snapshot to disk as JSON
func (s *Store) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	data, err := json.Marshal(snapshotUsers(s))
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// randID generates a random base32 id of length n and panics on failure
func randID(n int) string {
	id, err := util.RandBase32(n)
	if err != nil {
		panic(err)
	}
	return id
}

// Create creates a new user, generates a bcrypt hash, and persists the store
func (s *Store) Create(username, password string) (*User, error) {
	un := strings.TrimSpace(username)
	if len(un) < MinUsernameLen {
		return nil, ErrInvalidUsername
	}
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	lc := strings.ToLower(un)

	// tries to reserve the username
	s.mu.Lock()
	if _, ok := s.byName[lc]; ok {
		s.mu.Unlock()
		return nil, ErrUsernameTaken
	}

	now := s.now()
	u := &User{
		ID:           randID(12),
		Username:     un,
		PasswordHash: h,
		CreatedAt:    now,
		Level:        LevelFor(0),
		Elo:          InitialElo,
		Streak:       1,
		LastLoginAt:  now,
	}
	s.byID[u.ID] = u
	s.byName[lc] = u
	cp := u.clone()
	s.mu.Unlock()

	if err := s.save(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Authenticate tries to find the user and verifies the password with bcrypt
func (s *Store) Authenticate(username, password string) (*User, error) {
	lc := strings.ToLower(strings.TrimSpace(username))

	s.mu.RLock()
	u := s.byName[lc]
	var cp *User
	if u != nil {
		cp = u.clone()
	}
	s.mu.RUnlock()
	if cp == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(cp.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return cp, nil
}

// RecordLogin advances the user's daily login streak and grants streak achievements
func (s *Store) RecordLogin(id string) (*User, error) {
	s.mu.Lock()
	u := s.byID[id]
	if u == nil {
		s.mu.Unlock()
		return nil, ErrUserNotFound
	}
	now := s.now()
	u.Streak = nextStreak(u.Streak, u.LastLoginAt, now)
	u.LastLoginAt = now
	award(u, nil, now)
	cp := u.clone()
	s.mu.Unlock()

	if err := s.save(); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *Store) lookup(m map[string]*User, key string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := m[key]
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u.clone(), nil
}

// GetByUsername returns a copy of the user with that username
func (s *Store) GetByUsername(username string) (*User, error) {
	return s.lookup(s.byName, strings.ToLower(strings.TrimSpace(username)))
}

// GetByID returns a copy of the user with that id
func (s *Store) GetByID(id string) (*User, error) {
	return s.lookup(s.byID, id)
}

func eloScore(o game.Outcome) float64 {
	switch o {
	case game.OutcomeWin:
		return 1
	case game.OutcomeTie:
		return 0.5
	}
	return 0
}

func credit(u *User, p match.PlayerRecord, now time.Time) {
	u.XP += p.XP
	u.Level = LevelFor(u.XP)
	u.Games++
	switch p.Outcome {
	case game.OutcomeWin:
		u.Wins++
	case game.OutcomeLoss:
		u.Losses++
	case game.OutcomeTie:
		u.Ties++
	}
	award(u, &p, now)
}

// account returns the stored user behind p, or nil when p did not prove its identity
func (s *Store) account(p match.PlayerRecord) *User {
	if !p.Authenticated {
		return nil
	}
	return s.byID[p.UserID]
}

// RecordMatch credits a finished match to both players' profiles.
// Sides without a verified session are skipped; Elo only moves when both sides are registered.
func (s *Store) RecordMatch(ctx context.Context, rec match.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	host, guest := s.account(rec.Host), s.account(rec.Guest)
	if host == nil && guest == nil {
		s.mu.Unlock()
		return nil
	}
	now := s.now()
	if host != nil && guest != nil && host != guest {
		dh := eloDelta(host.Elo, guest.Elo, eloScore(rec.Host.Outcome))
		host.Elo += dh
		guest.Elo -= dh
	}
	if host != nil {
		credit(host, rec.Host, now)
	}
	if guest != nil && guest != host {
		credit(guest, rec.Guest, now)
	}
	s.mu.Unlock()

	return s.save()
}

// UsersByXP returns users filtered by query and sorted by XP desc then username asc
func (s *Store) UsersByXP(query string) []Profile {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	users := make([]Profile, 0, len(s.byID))
	for _, u := range s.byID {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) {
			users = append(users, u.Profile())
		}
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].XP == users[j].XP {
			return users[i].Username < users[j].Username
		}
		return users[i].XP > users[j].XP
	})
	return users
}

// Len returns the number of registered users
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

var _ match.ResultRecorder = (*Store)(nil)
