package realtime

import (
	"errors"
	"sync"
)

// ErrCapacity is returned when creating a room would exceed the store's
// limit.
var ErrCapacity = errors.New("realtime: room capacity reached")

// Room pairs state with the broadcaster for one room.
type Room[T any] struct {
	Code  string
	State T
	Hub   *Broadcaster
}

// Store manages rooms keyed by an opaque code. Rooms are created lazily
// and removed through Retire once their state reports empty.
type Store[T any] struct {
	mu    sync.Mutex
	limit int
	rooms map[string]*Room[T]
}

// NewStore creates an empty store. limit caps the number of live rooms;
// zero means unlimited.
func NewStore[T any](limit int) *Store[T] {
	return &Store[T]{
		limit: limit,
		rooms: make(map[string]*Room[T]),
	}
}

// GetOrCreate returns the room for code, building its state with init
// when absent. It reports whether the room was created. init receives the
// room's broadcaster so the state can publish to it.
func (s *Store[T]) GetOrCreate(code string, init func(hub *Broadcaster) T) (*Room[T], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		return r, false, nil
	}
	if s.limit > 0 && len(s.rooms) >= s.limit {
		return nil, false, ErrCapacity
	}
	r := &Room[T]{Code: code, Hub: NewBroadcaster()}
	r.State = init(r.Hub)
	s.rooms[code] = r
	return r, true, nil
}

// Get returns the room for code if it exists.
func (s *Store[T]) Get(code string) (*Room[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

// Retire removes the room for code if retire approves it. The callback
// runs while the store lock is held, so no room for the same code can be
// created mid-check; it should mark the state defunct under the state's
// own lock so a racing join detects the removal and retries.
func (s *Store[T]) Retire(code string, retire func(state T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false
	}
	if !retire(r.State) {
		return false
	}
	delete(s.rooms, code)
	return true
}

// Len reports the number of live rooms.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
