package auth

import "math"

const (
	// InitialElo is the rating of a freshly created account
	InitialElo = 1500
	// EloK is the K-factor applied to every rated match
	EloK = 32
)

// expected returns a float representing the favourite player using the Elo formula. (0.5 = equal chances, >0.5 favourite, <0.5 outsider)
func expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// round returns f rounded to the nearest integer with 0.5 cases away from zero
func round(f float64) float64 {
	if f >= 0 {
		return math.Floor(f + 0.5)
	}
	return math.Ceil(f - 0.5)
}

// eloDelta is the rating change of the side scoring scoreA (1 win, 0.5 tie, 0 loss) against rb
func eloDelta(ra, rb int, scoreA float64) int {
	return int(round(float64(EloK) * (scoreA - expected(ra, rb))))
}

// LevelFor maps total experience to a level: floor(sqrt(xp)/10) + 1
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp))/10) + 1
}
