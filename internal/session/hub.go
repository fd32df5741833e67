// Package session binds player connections to the single running game and
// serialises their intents into it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/analytics"
	"github.com/you/pawnduel/internal/board"
	"github.com/you/pawnduel/internal/game"
	"github.com/you/pawnduel/internal/obslog"
	"github.com/you/pawnduel/internal/protocol"
	"github.com/you/pawnduel/internal/store"
)

var (
	ErrSlotTaken = errors.New("player slot already taken")
	ErrInvalidID = errors.New("invalid player id")
)

// EventSink receives analytics events. *analytics.Analytics satisfies it.
type EventSink interface {
	Emit(ev analytics.Event)
}

type Options struct {
	MoveBudget   int
	OutboxSize   int
	PingInterval time.Duration
	WriteTimeout time.Duration
	Recorder     store.Recorder
	Events       EventSink
}

// Hub owns the game. mu is held for the whole validate-mutate-broadcast span
// of every transition; selects only take the read lock.
type Hub struct {
	mu       sync.RWMutex
	game     *game.Game
	clients  [3]*Client
	names    [3]string
	recorded bool

	outbox   int
	ping     time.Duration
	wtimeout time.Duration
	recorder store.Recorder
	events   EventSink
	persists sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 32
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Second
	}
	return &Hub{
		game:     game.New(opts.MoveBudget),
		names:    [3]string{"", board.P1.String(), board.P2.String()},
		outbox:   opts.OutboxSize,
		ping:     opts.PingInterval,
		wtimeout: opts.WriteTimeout,
		recorder: opts.Recorder,
		events:   opts.Events,
	}
}

// ParsePlayerID validates a slot number taken from the connect path.
func ParsePlayerID(n int) (board.Player, error) {
	if n < 1 || n > 2 {
		return board.None, fmt.Errorf("%w: %d", ErrInvalidID, n)
	}
	return board.Player(n), nil
}

// Bind attaches t to the player's slot and pushes a snapshot to everyone bound.
func (h *Hub) Bind(player board.Player, name string, t Transport) (*Client, error) {
	if !player.Valid() {
		return nil, ErrInvalidID
	}
	if name == "" {
		name = player.String()
	}

	h.mu.Lock()
	if h.clients[player] != nil {
		h.mu.Unlock()
		return nil, ErrSlotTaken
	}
	c := newClient(player, name, t, h.outbox)
	h.clients[player] = c
	h.names[player] = name
	go c.writeLoop(h.ping, h.writeFailed)
	h.broadcastLocked()
	gameID := h.game.ID.String()
	h.mu.Unlock()

	obslog.L().Info("player_bound", zap.String("player", player.String()), zap.String("name", name))
	h.emit(analytics.Event{Event: analytics.EventBind, GameID: gameID, Player: name})
	return c, nil
}

// Unbind frees the player's slot. It never touches the game.
func (h *Hub) Unbind(player board.Player) {
	if !player.Valid() {
		return
	}
	h.mu.Lock()
	c := h.clients[player]
	h.clients[player] = nil
	h.mu.Unlock()
	if c != nil {
		c.close()
		obslog.L().Info("player_unbound", zap.String("player", player.String()))
	}
}

// release unbinds c only if it still owns its slot, so a stale connection
// cannot evict a newer one.
func (h *Hub) release(c *Client) {
	h.mu.Lock()
	if h.clients[c.Player] == c {
		h.clients[c.Player] = nil
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeFailed(c *Client, err error) {
	obslog.L().Warn("delivery_failed", zap.String("player", c.Player.String()), zap.Error(err))
	h.release(c)
}

// Bound reports whether the slot currently has a live connection.
func (h *Hub) Bound(player board.Player) bool {
	if !player.Valid() {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[player] != nil
}

func (h *Hub) Snapshot() game.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.game.Snapshot()
}

// Handle processes one raw message from c.
func (h *Hub) Handle(c *Client, data []byte) {
	in, err := protocol.DecodeIntent(data)
	if err != nil {
		h.notify(c, err)
		return
	}
	// a connection only speaks for its own slot
	if in.Sender() != c.Player {
		return
	}

	switch v := in.(type) {
	case protocol.SelectIntent:
		h.mu.RLock()
		if h.clients[c.Player] != c {
			h.mu.RUnlock()
			return
		}
		dests, err := h.game.Select(v.Player, v.At.Row, v.At.Col)
		h.mu.RUnlock()
		if err != nil {
			h.notify(c, err)
			return
		}
		h.send(c, protocol.NewValidMoves(v.At, dests))
	case protocol.MoveIntent:
		h.transition(c, func(g *game.Game) (analytics.Event, error) {
			b := g.Board()
			target, _ := b.Get(v.To.Row, v.To.Col)
			ev := analytics.Event{
				Event:   analytics.EventMove,
				Player:  c.Name,
				From:    &[2]int{v.From.Row, v.From.Col},
				To:      &[2]int{v.To.Row, v.To.Col},
				Capture: target.Owner == v.Player.Opponent(),
			}
			return ev, g.Move(v.Player, v.From, v.To)
		})
	case protocol.SkipIntent:
		h.transition(c, func(g *game.Game) (analytics.Event, error) {
			return analytics.Event{Event: analytics.EventSkip, Player: c.Name}, g.Skip(v.Player)
		})
	}
}

// transition applies one mutating step under the write lock and broadcasts
// the result before the lock is released.
func (h *Hub) transition(c *Client, apply func(*game.Game) (analytics.Event, error)) {
	h.mu.Lock()
	if h.clients[c.Player] != c {
		h.mu.Unlock()
		return
	}
	ev, err := apply(h.game)
	if err != nil {
		h.mu.Unlock()
		h.notify(c, err)
		return
	}
	ev.GameID = h.game.ID.String()
	h.broadcastLocked()

	var (
		rec      store.GameRecord
		finished bool
	)
	if h.game.Over() && !h.recorded {
		h.recorded = true
		finished = true
		rec = h.recordLocked()
	}
	h.mu.Unlock()

	obslog.L().Debug("transition_applied", zap.String("event", ev.Event), zap.String("player", c.Player.String()))
	h.emit(ev)
	if finished {
		obslog.L().Info("game_over",
			zap.String("game_id", rec.GameID.String()),
			zap.String("winner", rec.Winner),
			zap.String("loser", rec.Loser))
		h.emit(analytics.Event{
			Event:    analytics.EventGameEnd,
			GameID:   rec.GameID.String(),
			Winner:   rec.Winner,
			Loser:    rec.Loser,
			Duration: rec.Timestamp.Sub(rec.StartedAt).String(),
		})
		h.persist(rec)
	}
}

func (h *Hub) recordLocked() store.GameRecord {
	snap := h.game.Snapshot()
	winner, loser := store.WinnerDraw, store.LoserNone
	if !snap.IsDraw && snap.Winner.Valid() {
		winner, loser = h.names[snap.Winner], h.names[snap.Winner.Opponent()]
	}
	ended := time.Now()
	if h.game.Ended != nil {
		ended = *h.game.Ended
	}
	return store.GameRecord{
		GameID:    h.game.ID,
		Player1ID: h.names[board.P1],
		Player2ID: h.names[board.P2],
		Winner:    winner,
		Loser:     loser,
		StartedAt: h.game.Started,
		Timestamp: ended,
	}
}

// persist hands the record to the recorder in the background. Failures are
// only logged.
func (h *Hub) persist(rec store.GameRecord) {
	if h.recorder == nil {
		return
	}
	h.persists.Add(1)
	go func() {
		defer h.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.recorder.SaveGameRecord(ctx, rec); err != nil {
			obslog.L().Error("persist_failed", zap.String("game_id", rec.GameID.String()), zap.Error(err))
		}
	}()
}

// broadcastLocked pushes the current snapshot to every bound client.
// A client whose outbox is full is dropped; the others still get the push.
func (h *Hub) broadcastLocked() {
	data, err := protocol.Encode(protocol.FromSnapshot(h.game.Snapshot()))
	if err != nil {
		obslog.L().Error("encode_state_failed", zap.Error(err))
		return
	}
	for p, c := range h.clients {
		if c == nil {
			continue
		}
		if !c.enqueue(data) {
			obslog.L().Warn("outbox_full", zap.String("player", c.Player.String()))
			h.clients[p] = nil
			c.close()
		}
	}
}

// send pushes a targeted message; a full outbox drops the client.
func (h *Hub) send(c *Client, m protocol.Message) {
	data, err := protocol.Encode(m)
	if err != nil {
		obslog.L().Error("encode_failed", zap.Error(err))
		return
	}
	if !c.enqueue(data) {
		h.release(c)
	}
}

func (h *Hub) notify(c *Client, err error) {
	text, ok := protocol.NoticeText(err)
	if !ok {
		return
	}
	obslog.L().Debug("intent_rejected", zap.String("player", c.Player.String()), zap.Error(err))
	h.send(c, protocol.NewError(text))
}

func (h *Hub) emit(ev analytics.Event) {
	if h.events != nil {
		h.events.Emit(ev)
	}
}

// Close unbinds everyone and waits for pending persistence.
func (h *Hub) Close() {
	h.Unbind(board.P1)
	h.Unbind(board.P2)
	h.persists.Wait()
}
