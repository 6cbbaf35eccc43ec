package match

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"quizduel/internal/game"
)

var ErrRoomNotFound = errors.New("room not found")

// insertAttempts bounds retries when a generated code loses a race to another creation
const insertAttempts = 8

type entry struct {
	mu      sync.Mutex // serializes every operation on this room
	room    *game.Room
	removed atomic.Bool
}

// Registry owns all live rooms keyed by code and the connection -> rooms index
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*entry
	byConn map[string]map[string]struct{}
	codes  *CodeGenerator
	now    func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(codes *CodeGenerator, now func() time.Time) *Registry {
	if codes == nil {
		codes = NewCodeGenerator(DefaultCodeLength)
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		rooms:  make(map[string]*entry),
		byConn: make(map[string]map[string]struct{}),
		codes:  codes,
		now:    now,
	}
}

func (r *Registry) exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

// Create allocates a fresh code and stores a waiting room owned by host
func (r *Registry) Create(host *game.Participant) (*game.Room, error) {
	for i := 0; i < insertAttempts; i++ {
		code, err := r.codes.Generate(r.exists)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		// another creation may have taken the code since the check
		if _, taken := r.rooms[code]; taken {
			r.mu.Unlock()
			continue
		}
		rm := game.NewRoom(code, host, r.now())
		r.rooms[code] = &entry{room: rm}
		r.bindLocked(host.ConnID, code)
		r.mu.Unlock()
		return rm, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// With runs fn while holding the room's lock
func (r *Registry) With(code string, fn func(rm *game.Room)) error {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// the room may have been removed while we waited for the lock
	if e.removed.Load() {
		return ErrRoomNotFound
	}
	fn(e.room)
	return nil
}

// Remove deletes the room; removing an unknown code is a no-op
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(code)
}

// RemoveIf deletes code only while it still maps to rm, so stale timers never touch a newer room
func (r *Registry) RemoveIf(code string, rm *game.Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[code]
	if !ok || e.room != rm {
		return false
	}
	r.removeLocked(code)
	return true
}

func (r *Registry) removeLocked(code string) {
	e, ok := r.rooms[code]
	if !ok {
		return
	}
	e.removed.Store(true)
	delete(r.rooms, code)
	for connID, codes := range r.byConn {
		delete(codes, code)
		if len(codes) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// Bind records that connID is a live handle in room code
func (r *Registry) Bind(connID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; !ok {
		return
	}
	r.bindLocked(connID, code)
}

func (r *Registry) bindLocked(connID, code string) {
	if connID == "" {
		return
	}
	set, ok := r.byConn[connID]
	if !ok {
		set = make(map[string]struct{})
		r.byConn[connID] = set
	}
	set[code] = struct{}{}
}

// Unbind forgets every room binding of connID
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	delete(r.byConn, connID)
	r.mu.Unlock()
}

// CodesFor lists the rooms connID is bound to
func (r *Registry) CodesFor(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byConn[connID]
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	return out
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
