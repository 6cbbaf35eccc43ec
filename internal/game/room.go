package game

import (
	"errors"
	"time"
)

var (
	ErrRoomUnavailable    = errors.New("room is full or game has already started")
	ErrNoQuestions        = errors.New("no questions assigned")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotPlaying         = errors.New("game is not in progress")
	ErrUnknownParticipant = errors.New("not a participant of this room")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrAlreadyAnswered    = errors.New("question already answered")
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusReady     Status = "ready"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Other returns the opposing role
func (r Role) Other() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// Participant is one side of a room and only lives as long as the room does
type Participant struct {
	UserID    string
	Username  string
	Avatar    string
	ConnID    string         // live connection handle, at most one at a time
	Connected bool           // false once the handle closed, score is frozen from then on
	Score     int            // never decreases
	Answers   map[int]Answer // keyed by question index

	// Authenticated is set only when UserID comes from a verified session token
	Authenticated bool
}

// NewParticipant creates a connected participant with a zero score
func NewParticipant(userID, username, avatar, connID string) *Participant {
	return &Participant{
		UserID:    userID,
		Username:  username,
		Avatar:    avatar,
		ConnID:    connID,
		Connected: true,
		Answers:   make(map[int]Answer),
	}
}

type Room struct {
	Code      string
	Host      *Participant
	Guest     *Participant
	Status    Status
	Questions []Question // assigned once on join
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
}

// NewRoom creates a waiting room owned by host
func NewRoom(code string, host *Participant, now time.Time) *Room {
	return &Room{
		Code:      code,
		Host:      host,
		Status:    StatusWaiting,
		CreatedAt: now,
	}
}

// Participant returns the participant playing role, or nil
func (r *Room) Participant(role Role) *Participant {
	switch role {
	case RoleHost:
		return r.Host
	case RoleGuest:
		return r.Guest
	}
	return nil
}

// RoleOf resolves which side connID is the live handle of
func (r *Room) RoleOf(connID string) (Role, bool) {
	if connID == "" {
		return "", false
	}
	if r.Host != nil && r.Host.ConnID == connID {
		return RoleHost, true
	}
	if r.Guest != nil && r.Guest.ConnID == connID {
		return RoleGuest, true
	}
	return "", false
}

// Join seats guest in a waiting room, assigns the question set and moves it to ready
func Join(r *Room, guest *Participant, questions []Question) error {
	if r.Status != StatusWaiting || r.Guest != nil {
		return ErrRoomUnavailable
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	r.Guest = guest
	r.Questions = questions
	r.Status = StatusReady
	return nil
}

// Start moves a ready room to playing and stamps StartedAt
func Start(r *Room, now time.Time) error {
	if r.Status != StatusReady {
		return ErrInvalidTransition
	}
	r.Status = StatusPlaying
	r.StartedAt = now
	return nil
}

// Complete finalizes a playing room; only the first call succeeds
func Complete(r *Room, now time.Time) error {
	if r.Status != StatusPlaying {
		return ErrInvalidTransition
	}
	r.Status = StatusCompleted
	r.EndedAt = now
	return nil
}

// Disconnect marks the participant's handle as gone
func Disconnect(r *Room, role Role) {
	if p := r.Participant(role); p != nil {
		p.Connected = false
	}
}

// BothDisconnected reports whether nobody is left to drive the room
func BothDisconnected(r *Room) bool {
	hostGone := r.Host == nil || !r.Host.Connected
	guestGone := r.Guest == nil || !r.Guest.Connected
	return hostGone && guestGone
}
