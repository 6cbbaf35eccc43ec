package httphandler

import "net/http"

type health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
	Users  int    `json:"users"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health{Status: "ok", Rooms: s.rooms.Len(), Users: s.users.Len()}, "")
}
