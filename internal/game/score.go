package game

import (
	"errors"
	"fmt"
	"sort"
)

// TieWinner is the winner value reported when both scores are equal
const TieWinner = "tie"

var ErrInvalidPolicy = errors.New("invalid scoring policy")

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeTie  Outcome = "tie"
)

// Tier grants Bonus XP to final scores of at least MinScore
type Tier struct {
	MinScore int
	Bonus    int
}

// Policy holds the scoring and XP constants of a match
type Policy struct {
	PointsPerCorrect int
	WinBonus         int
	TieBonus         int
	Tiers            []Tier // only the highest matching tier applies
}

// DefaultPolicy awards 10 per correct answer, 50 for a win and 30/15 for scores of 80/50
func DefaultPolicy() Policy {
	return Policy{
		PointsPerCorrect: 10,
		WinBonus:         50,
		TieBonus:         0,
		Tiers: []Tier{
			{MinScore: 80, Bonus: 30},
			{MinScore: 50, Bonus: 15},
		},
	}
}

// Validate rejects policies that could make scores or XP decrease
func (p Policy) Validate() error {
	if p.PointsPerCorrect <= 0 {
		return fmt.Errorf("%w: points per correct answer must be positive", ErrInvalidPolicy)
	}
	if p.WinBonus < 0 || p.TieBonus < 0 {
		return fmt.Errorf("%w: bonuses must not be negative", ErrInvalidPolicy)
	}
	for _, t := range p.Tiers {
		if t.Bonus < 0 {
			return fmt.Errorf("%w: tier bonus must not be negative", ErrInvalidPolicy)
		}
	}
	return nil
}

// XP returns the experience awarded for a final score and outcome
func (p Policy) XP(score int, outcome Outcome) int {
	xp := score
	switch outcome {
	case OutcomeWin:
		xp += p.WinBonus
	case OutcomeTie:
		xp += p.TieBonus
	}

	// picks the highest tier the score reaches
	tiers := append([]Tier(nil), p.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinScore > tiers[j].MinScore })
	for _, t := range tiers {
		if score >= t.MinScore {
			xp += t.Bonus
			break
		}
	}
	return xp
}

// Result is one participant's view of a completed match
type Result struct {
	Winner         string  `json:"winner"`
	Outcome        Outcome `json:"outcome"`
	PlayerScore    int     `json:"playerScore"`
	OpponentScore  int     `json:"opponentScore"`
	TimeToComplete int     `json:"timeToComplete"` // whole seconds
	XPEarned       int     `json:"xpEarned"`
}

// Winner returns the user id of the strictly higher scorer or TieWinner
func Winner(r *Room) string {
	hs, gs := score(r.Host), score(r.Guest)
	switch {
	case hs > gs:
		return r.Host.UserID
	case gs > hs:
		return r.Guest.UserID
	}
	return TieWinner
}

// Results computes both participants' results of a completed room
func Results(r *Room, policy Policy) map[Role]Result {
	if r.Status != StatusCompleted {
		return nil
	}
	winner := Winner(r)
	elapsed := int(r.EndedAt.Sub(r.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	out := make(map[Role]Result, 2)
	for _, role := range []Role{RoleHost, RoleGuest} {
		me, opp := r.Participant(role), r.Participant(role.Other())
		if me == nil {
			continue
		}
		oc := outcome(score(me), score(opp))
		out[role] = Result{
			Winner:         winner,
			Outcome:        oc,
			PlayerScore:    score(me),
			OpponentScore:  score(opp),
			TimeToComplete: elapsed,
			XPEarned:       policy.XP(score(me), oc),
		}
	}
	return out
}

func outcome(mine, theirs int) Outcome {
	switch {
	case mine > theirs:
		return OutcomeWin
	case mine < theirs:
		return OutcomeLoss
	}
	return OutcomeTie
}

func score(p *Participant) int {
	if p == nil {
		return 0
	}
	return p.Score
}
