package httphandler

import (
	"errors"
	"net/http"
	"strings"

	"quizduel/internal/game"
	"quizduel/internal/match"

	"github.com/go-chi/chi/v5"
)

type roomPlayer struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Connected bool   `json:"connected"`
	Answered  int    `json:"answered"`
}

type roomView struct {
	Code   string      `json:"code"`
	Status game.Status `json:"status"`
	Host   *roomPlayer `json:"host"`
	Guest  *roomPlayer `json:"guest"`
}

func player(p *game.Participant) *roomPlayer {
	if p == nil {
		return nil
	}
	return &roomPlayer{Username: p.Username, Avatar: p.Avatar, Connected: p.Connected, Answered: game.Answered(p)}
}

// Room reports whether a code is joinable without touching match state
func (s *Server) Room(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	var view roomView
	err := s.rooms.With(code, func(rm *game.Room) {
		view = roomView{
			Code:   rm.Code,
			Status: rm.Status,
			Host:   player(rm.Host),
			Guest:  player(rm.Guest),
		}
	})
	if errors.Is(err, match.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, view, "")
}
