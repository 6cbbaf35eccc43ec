package match

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"quizduel/internal/game"

	"github.com/sirupsen/logrus"
)

const (
	DefaultQuestionCount = 10
	DefaultGraceDelay    = 3 * time.Second
	DefaultRetention     = 5 * time.Minute

	recordTimeout = 10 * time.Second
)

// client-facing texts
const (
	msgRoomUnavailable = "Room is full or game has already started."
	msgOwnRoom         = "You are already in this room."
	msgRoomNotFound    = "Room not found."
	msgNotInRoom       = "You are not a player in this room."
	msgNotStarted      = "The game has not started yet."
	msgNotPlaying      = "The game is not in progress."
	msgAlreadyAnswered = "You already answered this question."
	msgBadQuestion     = "Unknown question."
	msgMissingAnswer   = "Answer must name a question and an option."
	msgOpponentLeft    = "Your opponent has disconnected."
	msgCreateFailed    = "Failed to create room. Please try again."
	msgInternal        = "Something went wrong. Please try again."
)

// Conn is a live client endpoint; Send must not block
type Conn interface {
	ID() string
	Send(event string, payload any)
}

// PlayerRecord is one side of a finished match as handed to the profile collaborator
type PlayerRecord struct {
	UserID        string
	Username      string
	Authenticated bool // false for players whose UserID was self-declared
	Score         int
	Correct       int
	Questions     int
	XP            int
	Outcome       game.Outcome
}

// Perfect reports whether every question of the match was answered correctly
func (p PlayerRecord) Perfect() bool {
	return p.Questions > 0 && p.Correct == p.Questions
}

type MatchRecord struct {
	Code    string
	Host    PlayerRecord
	Guest   PlayerRecord
	Winner  string
	EndedAt time.Time
}

// ResultRecorder receives every completed match, e.g. to credit XP to user profiles
type ResultRecorder interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
}

type Options struct {
	QuestionCount int
	GraceDelay    time.Duration
	Retention     time.Duration
	Policy        game.Policy
	Recorder      ResultRecorder
	Scheduler     Scheduler
	Now           func() time.Time
	Rand          *rand.Rand
	Log           logrus.FieldLogger
}

// Manager runs the match session state machine for every room in its registry
type Manager struct {
	rooms    *Registry
	pool     *game.Pool
	opts     Options
	log      logrus.FieldLogger
	timers   *timerSet
	recordWG sync.WaitGroup

	rngMu sync.Mutex
	rng   *rand.Rand

	connsMu sync.RWMutex
	conns   map[string]Conn
}

// NewManager creates a manager drawing questions from pool
func NewManager(rooms *Registry, pool *game.Pool, opts Options) *Manager {
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = DefaultQuestionCount
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = DefaultGraceDelay
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Policy.PointsPerCorrect == 0 {
		opts.Policy = game.DefaultPolicy()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Manager{
		rooms:  rooms,
		pool:   pool,
		opts:   opts,
		log:    opts.Log.WithField("component", "match"),
		timers: newTimerSet(opts.Scheduler),
		rng:    opts.Rand,
		conns:  make(map[string]Conn),
	}
}

// Connect registers a live connection so room broadcasts can reach it
func (m *Manager) Connect(c Conn) {
	m.connsMu.Lock()
	m.conns[c.ID()] = c
	m.connsMu.Unlock()
}

// send delivers to connID if it is still connected
func (m *Manager) send(connID, event string, payload any) {
	m.connsMu.RLock()
	c := m.conns[connID]
	m.connsMu.RUnlock()
	if c == nil {
		return
	}
	c.Send(event, payload)
}

func (m *Manager) sendError(c Conn, msg string) {
	c.Send(EventErrorMessage, ErrorMessage{Message: msg})
}

// guard is the per-event boundary: a panic becomes an error-message to the sender
func (m *Manager) guard(c Conn, event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			m.log.WithFields(logrus.Fields{
				"conn_id": c.ID(),
				"event":   event,
			}).Errorf("recovered panic while handling event: %v", rec)
			m.sendError(c, msgInternal)
		}
	}()
	fn()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func participantFor(c Conn, userID, username, avatar string, authenticated bool) *game.Participant {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = c.ID()
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "Player"
	}
	p := game.NewParticipant(userID, username, avatar, c.ID())
	p.Authenticated = authenticated
	return p
}

func info(p *game.Participant) PlayerInfo {
	return PlayerInfo{ID: p.UserID, Username: p.Username, Avatar: p.Avatar}
}

func (m *Manager) selectQuestions() []game.Question {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.pool.Select(m.opts.QuestionCount, m.rng)
}

// CreateRoom handles create-room
func (m *Manager) CreateRoom(c Conn, req CreateRoomRequest) {
	m.guard(c, EventCreateRoom, func() {
		host := participantFor(c, req.UserID, req.Username, req.Avatar, req.Authenticated)
		rm, err := m.rooms.Create(host)
		if err != nil {
			m.log.WithError(err).WithField("conn_id", c.ID()).Error("failed to create room")
			m.sendError(c, msgCreateFailed)
			return
		}
		m.log.WithFields(logrus.Fields{
			"room_code": rm.Code,
			"conn_id":   c.ID(),
			"username":  host.Username,
		}).Info("room created")
		c.Send(EventRoomCreated, RoomCreated{RoomCode: rm.Code})
	})
}

// JoinRoom handles join-room
func (m *Manager) JoinRoom(c Conn, req JoinRoomRequest) {
	m.guard(c, EventJoinRoom, func() {
		code := normalizeCode(req.RoomCode)
		logCtx := m.log.WithFields(logrus.Fields{"room_code": code, "conn_id": c.ID()})

		err := m.rooms.With(code, func(rm *game.Room) {
			if rm.Host != nil && rm.Host.ConnID == c.ID() {
				m.sendError(c, msgOwnRoom)
				return
			}
			if rm.Status != game.StatusWaiting || rm.Guest != nil {
				logCtx.WithField("status", rm.Status).Debug("join rejected")
				m.sendError(c, msgRoomUnavailable)
				return
			}

			guest := participantFor(c, req.UserID, req.Username, req.Avatar, req.Authenticated)
			// one identity cannot play both sides
			if rm.Host != nil && rm.Host.UserID == guest.UserID {
				m.sendError(c, msgOwnRoom)
				return
			}
			if err := game.Join(rm, guest, m.selectQuestions()); err != nil {
				logCtx.WithError(err).Warn("join failed")
				m.sendError(c, msgRoomUnavailable)
				return
			}
			m.rooms.Bind(c.ID(), code)

			// each side learns about the other
			m.send(rm.Host.ConnID, EventPlayerJoined, PlayerJoined{Player: info(rm.Guest)})
			c.Send(EventPlayerJoined, PlayerJoined{Player: info(rm.Host)})
			logCtx.WithField("username", guest.Username).Info("player joined")

			m.timers.after(m.opts.GraceDelay, func() { m.startMatch(code, rm) })
		})
		if errors.Is(err, ErrRoomNotFound) {
			logCtx.Debug("join on unknown room")
			c.Send(EventRoomNotFound, Empty{})
		}
	})
}

// startMatch fires after the grace delay
func (m *Manager) startMatch(code string, rm *game.Room) {
	defer m.recoverTimer(code)
	_ = m.rooms.With(code, func(cur *game.Room) {
		if cur != rm {
			return
		}
		if err := game.Start(cur, m.opts.Now()); err != nil {
			return
		}
		msg := GameStarted{Questions: cur.Questions}
		m.send(cur.Host.ConnID, EventGameStarted, msg)
		m.send(cur.Guest.ConnID, EventGameStarted, msg)
		m.log.WithFields(logrus.Fields{
			"room_code": code,
			"questions": len(cur.Questions),
		}).Info("game started")
	})
}

// scoreFor builds role's view of the current scores
func scoreFor(rm *game.Room, role game.Role) ScoreUpdate {
	me, opp := rm.Participant(role), rm.Participant(role.Other())
	su := ScoreUpdate{PlayerIsHost: role == game.RoleHost}
	if me != nil {
		su.PlayerScore = me.Score
		su.PlayerName = me.Username
	}
	if opp != nil {
		su.OpponentScore = opp.Score
		su.OpponentName = opp.Username
	}
	return su
}

func answerMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyAnswered):
		return msgAlreadyAnswered
	case errors.Is(err, game.ErrQuestionOutOfRange):
		return msgBadQuestion
	case errors.Is(err, game.ErrNotPlaying):
		return msgNotPlaying
	case errors.Is(err, game.ErrUnknownParticipant):
		return msgNotInRoom
	}
	return msgInternal
}

// PlayerAnswer handles player-answer
func (m *Manager) PlayerAnswer(c Conn, req PlayerAnswerRequest) {
	m.guard(c, EventPlayerAnswer, func() {
		if req.QuestionIndex == nil || req.AnswerIndex == nil {
			m.sendError(c, msgMissingAnswer)
			return
		}
		qi, selected := *req.QuestionIndex, *req.AnswerIndex
		code := normalizeCode(req.RoomCode)
		logCtx := m.log.WithFields(logrus.Fields{"room_code": code, "conn_id": c.ID()})

		err := m.rooms.With(code, func(rm *game.Room) {
			role, ok := rm.RoleOf(c.ID())
			if !ok {
				m.sendError(c, msgNotInRoom)
				return
			}
			a, err := game.SubmitAnswer(rm, role, qi, selected, m.opts.Policy, m.opts.Now())
			if err != nil {
				logCtx.WithError(err).WithField("question_index", qi).Debug("answer rejected")
				m.sendError(c, answerMessage(err))
				return
			}

			if opp := rm.Participant(role.Other()); opp != nil {
				m.send(opp.ConnID, EventOpponentAnswer, OpponentAnswer{
					QuestionIndex: a.QuestionIndex,
					AnswerIndex:   a.SelectedOption,
					IsCorrect:     a.IsCorrect,
				})
				m.send(opp.ConnID, EventScoreUpdate, scoreFor(rm, role.Other()))
			}
			c.Send(EventScoreUpdate, scoreFor(rm, role))
		})
		if errors.Is(err, ErrRoomNotFound) {
			m.sendError(c, msgRoomNotFound)
		}
	})
}

// RequestScores answers a client's reconciliation request with the current scores
func (m *Manager) RequestScores(c Conn, req RoomRequest) {
	m.guard(c, EventRequestScores, func() {
		code := normalizeCode(req.RoomCode)
		err := m.rooms.With(code, func(rm *game.Room) {
			role, ok := rm.RoleOf(c.ID())
			if !ok {
				m.sendError(c, msgNotInRoom)
				return
			}
			if rm.Status == game.StatusWaiting {
				m.sendError(c, msgNotStarted)
				return
			}
			c.Send(EventScoreUpdate, scoreFor(rm, role))
		})
		if errors.Is(err, ErrRoomNotFound) {
			m.sendError(c, msgRoomNotFound)
		}
	})
}

// GameCompleted handles game-completed; only the first signal finalizes the match
func (m *Manager) GameCompleted(c Conn, req RoomRequest) {
	m.guard(c, EventGameCompleted, func() {
		code := normalizeCode(req.RoomCode)
		logCtx := m.log.WithFields(logrus.Fields{"room_code": code, "conn_id": c.ID()})

		var rec *MatchRecord
		err := m.rooms.With(code, func(rm *game.Room) {
			if _, ok := rm.RoleOf(c.ID()); !ok {
				m.sendError(c, msgNotInRoom)
				return
			}
			switch rm.Status {
			case game.StatusCompleted:
				logCtx.Debug("duplicate completion ignored")
				return
			case game.StatusWaiting, game.StatusReady:
				m.sendError(c, msgNotStarted)
				return
			}
			if err := game.Complete(rm, m.opts.Now()); err != nil {
				return
			}

			results := game.Results(rm, m.opts.Policy)
			for role, res := range results {
				m.send(rm.Participant(role).ConnID, EventGameResults, res)
			}
			rec = matchRecord(rm, results)
			logCtx.WithField("winner", rec.Winner).Info("game completed")

			m.scheduleRemoval(code, rm)
		})
		if errors.Is(err, ErrRoomNotFound) {
			m.sendError(c, msgRoomNotFound)
			return
		}
		if rec != nil {
			m.record(*rec)
		}
	})
}

func matchRecord(rm *game.Room, results map[game.Role]game.Result) *MatchRecord {
	side := func(role game.Role) PlayerRecord {
		p, res := rm.Participant(role), results[role]
		return PlayerRecord{
			UserID:        p.UserID,
			Username:      p.Username,
			Authenticated: p.Authenticated,
			Score:         p.Score,
			Correct:       game.Correct(p),
			Questions:     len(rm.Questions),
			XP:            res.XPEarned,
			Outcome:       res.Outcome,
		}
	}
	return &MatchRecord{
		Code:    rm.Code,
		Host:    side(game.RoleHost),
		Guest:   side(game.RoleGuest),
		Winner:  game.Winner(rm),
		EndedAt: rm.EndedAt,
	}
}

// record hands the match to the recorder off the event path
func (m *Manager) record(rec MatchRecord) {
	if m.opts.Recorder == nil {
		return
	}
	m.recordWG.Add(1)
	go func() {
		defer m.recordWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := m.opts.Recorder.RecordMatch(ctx, rec); err != nil {
			m.log.WithError(err).WithField("room_code", rec.Code).Warn("failed to record match")
		}
	}()
}
