package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"liveshare/internal/protocol"
	"liveshare/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Updates carry the whole
	// document, so this is generous.
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveHandler upgrades websocket connections and speaks the session
// protocol with each participant.
type LiveHandler struct {
	store *session.Store
}

func NewLiveHandler(store *session.Store) *LiveHandler {
	return &LiveHandler{store: store}
}

func (h *LiveHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.serve)
}

func (h *LiveHandler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	c := &client{store: h.store, conn: conn, state: stateConnecting}
	c.readPump()
}

// Connection lifecycle. State is only touched by the read pump's
// goroutine.
const (
	stateConnecting = iota // transport open, JOIN not yet received
	stateJoined            // registered in a session, INIT queued
	stateActive            // accepting updates
	stateClosed
)

type client struct {
	store *session.Store
	conn  *websocket.Conn
	state int
	sess  *session.Session
	self  *session.Participant
}

// readPump parses inbound messages and drives the state machine until
// the transport closes or the client violates the protocol. Teardown
// always de-registers the participant exactly once.
func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read: %v", err)
			}
			return
		}
		var msg protocol.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.fail("malformed message")
			return
		}
		if !c.handle(&msg) {
			return
		}
	}
}

// handle processes one inbound message; it reports false when the
// connection should be torn down.
func (c *client) handle(msg *protocol.ClientMessage) bool {
	switch msg.Type {
	case protocol.TypeJoin:
		if c.state != stateConnecting {
			c.fail("already joined a session")
			return false
		}
		if msg.SessionCode == "" {
			c.fail("missing session code")
			return false
		}
		sess, p, err := c.store.Join(msg.SessionCode, msg.DisplayName)
		if err != nil {
			c.fail("no session slots available, try again later")
			return false
		}
		c.sess, c.self = sess, p
		c.state = stateJoined
		go c.writePump(p.Outbox())
		// INIT sits first in the outbox, so from the protocol's view
		// this connection is live as soon as the writer starts.
		c.state = stateActive
		log.Printf("join session=%s user=%s role=%s", sess.Code(), p.DisplayName, p.Role)
		return true

	case protocol.TypeUpdate:
		if c.state != stateActive {
			c.fail("join a session first")
			return false
		}
		c.sess.Update(c.self, msg.Code)
		return true

	default:
		// Unknown types are ignored so newer clients keep working.
		return true
	}
}

// writePump delivers the participant's outbox to the socket and keeps
// the connection alive with pings. It exits when the outbox closes
// (de-registration) or a write fails.
func (c *client) writePump(outbox <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, open := <-outbox:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// fail rejects the connection with a close frame carrying reason.
// Before the writer goroutine exists a courtesy notification is sent
// too; after that only the control frame is safe to write concurrently.
func (c *client) fail(reason string) {
	deadline := time.Now().Add(writeWait)
	if c.state == stateConnecting {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.WriteMessage(websocket.TextMessage, protocol.Notification(reason).Encode())
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
}

func (c *client) close() {
	if c.state == stateClosed {
		return
	}
	c.state = stateClosed
	if c.self != nil {
		c.store.Leave(c.sess, c.self)
		log.Printf("leave session=%s user=%s", c.sess.Code(), c.self.DisplayName)
	}
	_ = c.conn.Close()
}
