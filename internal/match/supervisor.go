package match

import (
	"sync"
	"time"

	"quizduel/internal/game"

	"github.com/sirupsen/logrus"
)

// Timer is a pending scheduled callback
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d without blocking the caller
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// timerSet tracks pending timers so Close can stop them
type timerSet struct {
	sched   Scheduler
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]Timer
	closed  bool
}

func newTimerSet(s Scheduler) *timerSet {
	return &timerSet{sched: s, pending: make(map[uint64]Timer)}
}

func (ts *timerSet) after(d time.Duration, f func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.closed {
		return
	}
	ts.nextID++
	id := ts.nextID
	ts.pending[id] = ts.sched.AfterFunc(d, func() {
		ts.mu.Lock()
		_, live := ts.pending[id]
		delete(ts.pending, id)
		ts.mu.Unlock()
		if live {
			f()
		}
	})
}

func (ts *timerSet) stopAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.closed = true
	for id, t := range ts.pending {
		t.Stop()
		delete(ts.pending, id)
	}
}

func (ts *timerSet) len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

// scheduleRemoval purges a completed room after the retention window, whatever happens meanwhile
func (m *Manager) scheduleRemoval(code string, rm *game.Room) {
	m.timers.after(m.opts.Retention, func() {
		defer m.recoverTimer(code)
		if m.rooms.RemoveIf(code, rm) {
			m.log.WithField("room_code", code).Info("room cleaned up")
		}
	})
}

func (m *Manager) recoverTimer(code string) {
	if rec := recover(); rec != nil {
		m.log.WithField("room_code", code).Errorf("recovered panic in room timer: %v", rec)
	}
}

// Disconnect releases connID and settles every room it was a live handle in
func (m *Manager) Disconnect(connID string) {
	m.connsMu.Lock()
	delete(m.conns, connID)
	m.connsMu.Unlock()

	for _, code := range m.rooms.CodesFor(connID) {
		m.disconnectFrom(code, connID)
	}
	m.rooms.Unbind(connID)
}

func (m *Manager) disconnectFrom(code, connID string) {
	defer m.recoverTimer(code)
	logCtx := m.log.WithFields(logrus.Fields{"room_code": code, "conn_id": connID})

	_ = m.rooms.With(code, func(rm *game.Room) {
		role, ok := rm.RoleOf(connID)
		if !ok {
			return
		}
		switch rm.Status {
		case game.StatusWaiting:
			// only the host is here, nobody can ever start this room
			m.rooms.Remove(code)
			logCtx.Info("host left waiting room, room removed")

		case game.StatusReady, game.StatusPlaying:
			game.Disconnect(rm, role)
			if game.BothDisconnected(rm) {
				m.rooms.Remove(code)
				logCtx.Info("both players left, room removed")
				return
			}
			if opp := rm.Participant(role.Other()); opp != nil {
				m.send(opp.ConnID, EventErrorMessage, ErrorMessage{Message: msgOpponentLeft})
				m.send(opp.ConnID, EventOpponentLeft, Empty{})
			}
			logCtx.WithField("role", role).Info("player disconnected mid-match")

		case game.StatusCompleted:
			// already scheduled for removal
		}
	})
}

// Close stops pending timers and waits for in-flight match records
func (m *Manager) Close() {
	m.timers.stopAll()
	m.recordWG.Wait()
}
