package protocol

import "encoding/json"

// Message types exchanged over the websocket.
const (
	TypeJoin         = "JOIN"
	TypeUpdate       = "UPDATE"
	TypeInit         = "INIT"
	TypeUserList     = "USER_LIST"
	TypeNotification = "NOTIFICATION"
)

// ClientMessage is a message from client to server. Code carries the
// full document text on UPDATE.
type ClientMessage struct {
	Type        string `json:"type"`
	SessionCode string `json:"sessionCode,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Code        string `json:"code,omitempty"`
}

// ServerMessage is a message from server to client. Which fields are
// set depends on Type; Code is always present so an empty document is
// distinguishable from a missing one.
type ServerMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Users    []User `json:"users,omitempty"`
	Message  string `json:"message,omitempty"`
}

// User describes one participant in a presence snapshot.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Init is the first reply after a JOIN: the full bootstrap state for
// the new participant.
func Init(document, username, role string) ServerMessage {
	return ServerMessage{Type: TypeInit, Code: document, Username: username, Role: role}
}

// Update carries the new authoritative document text.
func Update(document string) ServerMessage {
	return ServerMessage{Type: TypeUpdate, Code: document}
}

// UserList is a full presence snapshot, never a diff, so clients can
// resynchronize from any single message.
func UserList(users []User) ServerMessage {
	return ServerMessage{Type: TypeUserList, Users: users}
}

// Notification is an ephemeral, UI-only message.
func Notification(message string) ServerMessage {
	return ServerMessage{Type: TypeNotification, Message: message}
}

// Encode serializes a ServerMessage to JSON bytes.
func (m ServerMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
