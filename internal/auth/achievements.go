package auth

import (
	"time"

	"quizduel/internal/match"
)

// Achievement is a badge a user has earned
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type achievementRule struct {
	id, name, description string
	// earned is checked after the user's counters were updated; rec is nil on login
	earned func(u *User, rec *match.PlayerRecord) bool
}

var achievementRules = []achievementRule{
	{"first_steps", "First Steps", "Complete your first match", func(u *User, _ *match.PlayerRecord) bool {
		return u.Games >= 1
	}},
	{"perfect_score", "Perfect Score", "Answer every question of a match correctly", func(_ *User, rec *match.PlayerRecord) bool {
		return rec != nil && rec.Perfect()
	}},
	{"quiz_master", "Quiz Master", "Complete 10 matches", func(u *User, _ *match.PlayerRecord) bool {
		return u.Games >= 10
	}},
	{"weekly_streak", "Weekly Warrior", "Maintain a 7-day streak", func(u *User, _ *match.PlayerRecord) bool {
		return u.Streak >= 7
	}},
	{"monthly_streak", "Dedication", "Maintain a 30-day streak", func(u *User, _ *match.PlayerRecord) bool {
		return u.Streak >= 30
	}},
}

func (u *User) hasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// award grants every achievement u now qualifies for and has not earned yet
func award(u *User, rec *match.PlayerRecord, now time.Time) {
	for _, r := range achievementRules {
		if u.hasAchievement(r.id) || !r.earned(u, rec) {
			continue
		}
		u.Achievements = append(u.Achievements, Achievement{
			ID:          r.id,
			Name:        r.name,
			Description: r.description,
			EarnedAt:    now,
		})
	}
}

// nextStreak counts consecutive login days; a gap of more than one day starts over
func nextStreak(streak int, last, now time.Time) int {
	if last.IsZero() {
		return 1
	}
	days := int(now.Sub(last) / (24 * time.Hour))
	switch {
	case days == 1:
		return streak + 1
	case days > 1:
		return 1
	}
	return max(streak, 1)
}
