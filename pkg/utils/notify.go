package utils

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoConnection is returned when there is no websocket connection for the user.
var ErrNoConnection = errors.New("no websocket connection for user")

// Conn is the part of *websocket.Conn the notifier writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const writeTimeout = 5 * time.Second

// Client is a registered connection. A websocket allows one writer at a
// time, so every write to conn goes through the client's lock.
type Client struct {
	mu   sync.Mutex
	conn Conn
}

func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) WriteJSON(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, msg)
}

// Notifier tracks open websocket connections per user. A user may have
// several tabs open; each gets every push.
type Notifier struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}
	log   *logrus.Logger
}

func NewNotifier(log *logrus.Logger) *Notifier {
	return &Notifier{
		conns: make(map[uuid.UUID]map[*Client]struct{}),
		log:   log,
	}
}

// Register tracks conn for userID. The caller must write to conn only
// through the returned client.
func (n *Notifier) Register(userID uuid.UUID, conn Conn) *Client {
	client := &Client{conn: conn}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.conns[userID]; !ok {
		n.conns[userID] = make(map[*Client]struct{})
	}
	n.conns[userID][client] = struct{}{}
	n.log.WithFields(logrus.Fields{"event": "ws_register", "user": userID, "total_connections": len(n.conns[userID])}).Debug("websocket registered")
	return client
}

func (n *Notifier) Unregister(userID uuid.UUID, client *Client) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removeLocked(userID, client)
}

func (n *Notifier) removeLocked(userID uuid.UUID, client *Client) {
	m, ok := n.conns[userID]
	if !ok {
		return
	}
	if _, ok := m[client]; ok {
		_ = client.conn.Close()
		delete(m, client)
	}
	if len(m) == 0 {
		delete(n.conns, userID)
	}
}

// Send writes payload as JSON to every connection of userID. Connections
// that fail to accept the write are dropped.
func (n *Notifier) Send(userID uuid.UUID, payload interface{}) error {
	n.mu.RLock()
	targets := make([]*Client, 0, len(n.conns[userID]))
	for c := range n.conns[userID] {
		targets = append(targets, c)
	}
	n.mu.RUnlock()

	if len(targets) == 0 {
		return ErrNoConnection
	}

	msg, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var failed []*Client
	for _, c := range targets {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			n.log.WithError(err).WithField("user", userID).Warn("websocket write failed")
			failed = append(failed, c)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, c := range failed {
			n.removeLocked(userID, c)
		}
		n.mu.Unlock()
	}
	if len(failed) == len(targets) {
		return ErrNoConnection
	}
	return nil
}

// ActiveUserIDs returns a snapshot of currently connected user IDs.
func (n *Notifier) ActiveUserIDs() []uuid.UUID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(n.conns))
	for id := range n.conns {
		out = append(out, id)
	}
	return out
}
