package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"liveshare/internal/protocol"
	"liveshare/pkg/realtime"
)

// Participant roles. Exactly one editor exists per non-empty session.
const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// DefaultDocument seeds every new session's shared buffer.
const DefaultDocument = "// Start coding together!"

const (
	maxDisplayName = 24
	// Outbound payloads a participant may have in flight before it is
	// treated as disconnected.
	sendBuffer = 32
)

// Participant is one connected member of a session. Role is guarded by
// the owning session's mutex.
type Participant struct {
	ID          string
	DisplayName string
	Role        string
	sub         *realtime.Subscriber
}

// Outbox returns the channel carrying this participant's outbound
// payloads, in the order their triggering events were applied. It is
// closed when the participant is de-registered.
func (p *Participant) Outbox() <-chan []byte { return p.sub.C() }

// Session holds the shared document and the participants editing or
// watching it. All fields are guarded by mu, so mutations to one
// session are serialized while distinct sessions proceed independently.
type Session struct {
	mu           sync.Mutex
	code         string
	document     string
	participants []*Participant // join order
	hub          *realtime.Broadcaster
	defunct      bool
}

func newSession(code string, hub *realtime.Broadcaster) *Session {
	return &Session{
		code:     code,
		document: DefaultDocument,
		hub:      hub,
	}
}

// Code returns the session's opaque identifier.
func (s *Session) Code() string { return s.code }

// Document returns the current shared text.
func (s *Session) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// Users returns a presence snapshot in join order.
func (s *Session) Users() []protocol.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked()
}

func (s *Session) usersLocked() []protocol.User {
	users := make([]protocol.User, 0, len(s.participants))
	for _, p := range s.participants {
		users = append(users, protocol.User{Username: p.DisplayName, Role: p.Role})
	}
	return users
}

// Join registers a new participant. The first joiner becomes the
// editor; everyone after is a viewer. The joiner's outbox receives INIT
// first, then the USER_LIST broadcast that also goes to everyone else.
// Join returns nil if the session was retired concurrently; the caller
// should fetch a fresh session and retry.
func (s *Session) Join(displayName string) *Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defunct {
		return nil
	}
	role := RoleViewer
	if len(s.participants) == 0 {
		role = RoleEditor
	}
	id := uuid.NewString()
	p := &Participant{
		ID:          id,
		DisplayName: cleanDisplayName(displayName, id),
		Role:        role,
		sub:         s.hub.Subscribe(sendBuffer),
	}
	s.participants = append(s.participants, p)
	s.sendLocked(p, protocol.Init(s.document, p.DisplayName, p.Role))
	s.broadcastLocked(protocol.UserList(s.usersLocked()))
	s.broadcastExceptLocked(p, protocol.Notification(p.DisplayName+" joined the session"))
	return p
}

// Leave de-registers p, promoting the earliest remaining joiner when
// the editor departs. It reports whether the session is now empty.
func (s *Session) Leave(p *Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, q := range s.participants {
		if q == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(s.participants) == 0
	}
	s.participants = append(s.participants[:idx], s.participants[idx+1:]...)
	s.hub.Unsubscribe(p.sub)
	if len(s.participants) == 0 {
		return true
	}
	if p.Role == RoleEditor {
		s.participants[0].Role = RoleEditor
	}
	s.broadcastLocked(protocol.UserList(s.usersLocked()))
	s.broadcastLocked(protocol.Notification(p.DisplayName + " left the session"))
	return false
}

// Update applies new document content from p. The role check uses the
// session's own record, never the client message. Non-editors get a
// private denial notification and the document is left untouched; an
// editor's update replaces the document and is broadcast to everyone,
// the editor included.
func (s *Session) Update(p *Participant, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Role != RoleEditor {
		s.sendLocked(p, protocol.Notification("only the editor can change the code"))
		return false
	}
	s.document = content
	s.broadcastLocked(protocol.Update(content))
	return true
}

// retire marks the session defunct if it is empty, so any join racing
// the removal fails and retries against a fresh session. Called with
// the room store lock held.
func (s *Session) retire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.participants) > 0 {
		return false
	}
	s.defunct = true
	return true
}

// sendLocked delivers a message to one participant. A participant whose
// outbox cannot accept it is detached; its writer sees the closed
// channel and tears the connection down through the normal leave path.
func (s *Session) sendLocked(p *Participant, msg protocol.ServerMessage) {
	if !p.sub.Send(msg.Encode()) {
		s.hub.Unsubscribe(p.sub)
	}
}

func (s *Session) broadcastLocked(msg protocol.ServerMessage) {
	for _, sub := range s.hub.Publish(msg.Encode()) {
		s.hub.Unsubscribe(sub)
	}
}

func (s *Session) broadcastExceptLocked(except *Participant, msg protocol.ServerMessage) {
	payload := msg.Encode()
	for _, p := range s.participants {
		if p == except {
			continue
		}
		if !p.sub.Send(payload) {
			s.hub.Unsubscribe(p.sub)
		}
	}
}

func cleanDisplayName(name, id string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "guest-" + id[:8]
	}
	if len(name) > maxDisplayName {
		name = name[:maxDisplayName]
	}
	return name
}
