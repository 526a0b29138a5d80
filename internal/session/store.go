package session

import (
	"liveshare/pkg/realtime"
)

// Store owns every live session and routes joins, departures, and
// document updates to the right one. Sessions are created lazily on the
// first join of an unknown code and retired once their last participant
// leaves.
type Store struct {
	rooms *realtime.Store[*Session]
}

// NewStore creates a session store. maxSessions caps concurrent live
// sessions; zero means unlimited.
func NewStore(maxSessions int) *Store {
	return &Store{rooms: realtime.NewStore[*Session](maxSessions)}
}

// Join adds a participant with the given display name to the session
// identified by code, creating the session if it does not exist. It
// returns realtime.ErrCapacity when a new session cannot be allocated;
// in that case nothing was registered.
func (s *Store) Join(code, displayName string) (*Session, *Participant, error) {
	for {
		room, _, err := s.rooms.GetOrCreate(code, func(hub *realtime.Broadcaster) *Session {
			return newSession(code, hub)
		})
		if err != nil {
			return nil, nil, err
		}
		if p := room.State.Join(displayName); p != nil {
			return room.State, p, nil
		}
		// Lost the race against Retire: the mapping is gone, so the
		// next GetOrCreate starts a fresh session under this code.
	}
}

// Leave de-registers p from sess and retires the session once it has no
// participants left. A join that lands between the emptiness check and
// the removal keeps the session alive.
func (s *Store) Leave(sess *Session, p *Participant) {
	if !sess.Leave(p) {
		return
	}
	s.rooms.Retire(sess.Code(), func(state *Session) bool {
		return state == sess && state.retire()
	})
}

// Len reports the number of live sessions.
func (s *Store) Len() int { return s.rooms.Len() }
