package httphandler

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

type leaderboardRow struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
	Elo      int    `json:"elo"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Ties     int    `json:"ties"`
	WinRate  int    `json:"winRate"`
}

// Leaderboard lists users by XP, optionally filtered by a username substring
func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	list := s.users.UsersByXP(q)
	if len(list) > limit {
		list = list[:limit]
	}
	rows := make([]leaderboardRow, 0, len(list))
	for i, u := range list {
		wr := 0
		if u.Games > 0 {
			wr = int((float64(u.Wins) / float64(u.Games)) * 100)
		}
		rows = append(rows, leaderboardRow{
			Rank:     i + 1,
			Username: u.Username,
			XP:       u.XP,
			Level:    u.Level,
			Elo:      u.Elo,
			Games:    u.Games,
			Wins:     u.Wins,
			Losses:   u.Losses,
			Ties:     u.Ties,
			WinRate:  wr,
		})
	}
	writeJSON(w, http.StatusOK, rows, "")
}
