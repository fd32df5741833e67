package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/you/pawnduel/internal/board"
)

// Transport is the outbound half of a player connection.
type Transport interface {
	WriteMessage(data []byte) error
	Ping() error
	Close() error
}

// wsTransport bounds every write with a deadline so a stalled peer
// surfaces as an error instead of blocking the writer forever.
type wsTransport struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (t *wsTransport) WriteMessage(data []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.timeout))
}

func (t *wsTransport) Close() error { return t.conn.Close() }

// Client is one bound player connection with its own outbox.
type Client struct {
	Player board.Player
	Name   string

	t    Transport
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(player board.Player, name string, t Transport, outbox int) *Client {
	return &Client{
		Player: player,
		Name:   name,
		t:      t,
		send:   make(chan []byte, outbox),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. false means the outbox is full or the client is closed.
func (c *Client) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbox until the client closes. onFail runs once on
// the first write or ping error.
func (c *Client) writeLoop(ping time.Duration, onFail func(*Client, error)) {
	var tick <-chan time.Time
	if ping > 0 {
		t := time.NewTicker(ping)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			if err := c.t.WriteMessage(b); err != nil {
				onFail(c, err)
				return
			}
		case <-tick:
			if err := c.t.Ping(); err != nil {
				onFail(c, err)
				return
			}
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.t.Close()
	})
}

// Done is closed once the client has been unbound.
func (c *Client) Done() <-chan struct{} { return c.done }
