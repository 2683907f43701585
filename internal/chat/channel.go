package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aksaraymalaklisi/greentrail/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// AssistantSender tags frames that originate from the assistant.
// Frames carrying any other sender are echoes of viewer messages and
// are dropped, the viewer's copy was already appended at send time.
const AssistantSender = "chatbot"

const greeting = "Olá! Sou o assistente do Green Trail. Pergunte sobre nossas trilhas."

var (
	ErrNotConnected     = errors.New("assistant channel is not connected")
	ErrNotAuthenticated = errors.New("assistant requires an authenticated session")
)

type Message struct {
	ID         string
	Text       string
	FromViewer bool
}

type frame struct {
	User    string `json:"user,omitempty"`
	Message string `json:"message"`
}

// Dialer opens the websocket. Swappable so tests can point at a local
// listener.
type Dialer func(url string) (*websocket.Conn, error)

// Channel is the assistant conversation. One connection exists per
// open panel, scoped to the authenticated user; closing the panel
// discards it and reopening starts fresh.
type Channel struct {
	sess    *session.Manager
	baseURL string
	dial    Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	open      bool
	connected bool
	messages  []Message
}

func NewChannel(sess *session.Manager, wsBaseURL string) *Channel {
	return &Channel{
		sess:    sess,
		baseURL: strings.TrimSuffix(wsBaseURL, "/"),
		dial: func(url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			return conn, err
		},
	}
}

func (c *Channel) SetDialer(dial Dialer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dial = dial
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Channel) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Open marks the panel open and connects when the session allows it.
// The conversation always restarts from the greeting.
func (c *Channel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.messages = []Message{{ID: uuid.NewString(), Text: greeting}}

	if c.conn != nil {
		return nil
	}
	snap := c.sess.Snapshot()
	if snap.State != session.Authenticated {
		return ErrNotAuthenticated
	}

	url := fmt.Sprintf("%s/ws/chat/%s/?token=%s", c.baseURL, snap.User.ID, c.sess.AccessToken())
	conn, err := c.dial(url)
	if err != nil {
		return err
	}
	c.conn = conn
	c.connected = true
	go c.readLoop(conn)
	return nil
}

// Close tears the connection down. History is not preserved for the
// next open.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.connected = false
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Send appends the viewer's message locally, then transmits it. The
// local copy stays even when the write fails; failed sends are not
// reconciled.
func (c *Channel) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}

	c.messages = append(c.messages, Message{ID: uuid.NewString(), Text: text, FromViewer: true})

	raw, err := json.Marshal(frame{Message: text})
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			// An unexpected drop only disables send; reopening the
			// panel is the way back.
			if c.conn == conn {
				c.connected = false
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if f.User != AssistantSender {
			continue
		}

		c.mu.Lock()
		if c.open && c.conn == conn {
			c.messages = append(c.messages, Message{ID: uuid.NewString(), Text: f.Message})
		}
		c.mu.Unlock()
	}
}
