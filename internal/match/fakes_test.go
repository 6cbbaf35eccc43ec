package match

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"quizduel/internal/game"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type sent struct {
	Event   string
	Payload any
}

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []sent
}

func newConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event string, payload any) {
	f.mu.Lock()
	f.msgs = append(f.msgs, sent{Event: event, Payload: payload})
	f.mu.Unlock()
}

func (f *fakeConn) all(event string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, m := range f.msgs {
		if m.Event == event {
			out = append(out, m.Payload)
		}
	}
	return out
}

func (f *fakeConn) count(event string) int { return len(f.all(event)) }

func (f *fakeConn) last(t *testing.T, event string) any {
	t.Helper()
	got := f.all(event)
	require.NotEmpty(t, got, "no %s sent to %s", event, f.id)
	return got[len(got)-1]
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.msgs = nil
	f.mu.Unlock()
}

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// fakeScheduler only runs callbacks when fire is called
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer scheduled with delay d
func (s *fakeScheduler) fire(d time.Duration) int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if t.d == d && !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []MatchRecord
}

func (r *fakeRecorder) RecordMatch(_ context.Context, rec MatchRecord) error {
	r.mu.Lock()
	r.recs = append(r.recs, rec)
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) records() []MatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MatchRecord(nil), r.recs...)
}

const (
	testGrace     = 3 * time.Second
	testRetention = 5 * time.Minute
)

type harness struct {
	m     *Manager
	sched *fakeScheduler
	rec   *fakeRecorder
	clock time.Time
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testPool(t *testing.T, n int) *game.Pool {
	t.Helper()
	qs := make([]game.Question, n)
	for i := range qs {
		qs[i] = game.Question{
			Prompt:        "question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: 0,
		}
	}
	p, err := game.NewPool(qs)
	require.NoError(t, err)
	return p
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched: &fakeScheduler{},
		rec:   &fakeRecorder{},
		clock: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return h.clock }
	h.m = NewManager(NewRegistry(nil, now), testPool(t, 12), Options{
		QuestionCount: 5,
		GraceDelay:    testGrace,
		Retention:     testRetention,
		Recorder:      h.rec,
		Scheduler:     h.sched,
		Now:           now,
		Rand:          rand.New(rand.NewPCG(7, 7)),
		Log:           quietLogger(),
	})
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) connect(id string) *fakeConn {
	c := newConn(id)
	h.m.Connect(c)
	return c
}

// createRoom returns the code the host received
func (h *harness) createRoom(t *testing.T, host *fakeConn, name string) string {
	t.Helper()
	h.m.CreateRoom(host, CreateRoomRequest{UserID: "id-" + name, Username: name})
	return host.last(t, EventRoomCreated).(RoomCreated).RoomCode
}

// startGame creates a room, joins it and fires the grace timer
func (h *harness) startGame(t *testing.T) (code string, host, guest *fakeConn) {
	t.Helper()
	host, guest = h.connect("c-host"), h.connect("c-guest")
	code = h.createRoom(t, host, "alice")
	h.m.JoinRoom(guest, JoinRoomRequest{RoomCode: code, UserID: "id-bob", Username: "bob"})
	require.Equal(t, 1, h.sched.fire(testGrace))
	require.Equal(t, 1, host.count(EventGameStarted))
	return code, host, guest
}

func intp(n int) *int { return &n }

func answer(code string, qi, opt int) PlayerAnswerRequest {
	return PlayerAnswerRequest{RoomCode: code, QuestionIndex: intp(qi), AnswerIndex: intp(opt)}
}

// get returns the room stored under code without taking its lock; tests only read it between events
func (r *Registry) get(code string) (*game.Room, error) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return e.room, nil
}
