// Package game is the authoritative state machine for one match: turn order,
// move budgets, skip bookkeeping and game-over detection.
//
// A Game is not safe for concurrent use; the session hub serialises access.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/you/pawnduel/internal/board"
	"github.com/you/pawnduel/internal/rules"
)

// DefaultMoveBudget is the number of moves each player may make.
const DefaultMoveBudget = 100

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrIllegalMove      = errors.New("illegal move")
	ErrDoubleSkip       = errors.New("skip twice in a row")
)

type Action string

const (
	ActionNone Action = ""
	ActionMove Action = "move"
	ActionSkip Action = "skip"
)

type Game struct {
	ID      uuid.UUID
	Started time.Time
	Ended   *time.Time

	board      board.Board
	turn       board.Player
	movesLeft  [3]int
	lastAction [3]Action
	over       bool
	winner     board.Player
	isDraw     bool
}

// New starts a game with P1 to move. A non-positive budget falls back to DefaultMoveBudget.
func New(budget int) *Game {
	if budget <= 0 {
		budget = DefaultMoveBudget
	}
	g := &Game{
		ID:      uuid.New(),
		Started: time.Now(),
		board:   board.NewInitial(),
		turn:    board.P1,
	}
	g.movesLeft[board.P1] = budget
	g.movesLeft[board.P2] = budget
	return g
}

// FromBoard starts a game on an arbitrary layout. Used for replays and tests.
func FromBoard(b board.Board, turn board.Player, budgetP1, budgetP2 int) *Game {
	g := New(1)
	g.board = b
	g.turn = turn
	g.movesLeft[board.P1] = budgetP1
	g.movesLeft[board.P2] = budgetP2
	return g
}

func (g *Game) gate(player board.Player) error {
	if g.over {
		return ErrGameOver
	}
	if !player.Valid() || player != g.turn {
		return ErrNotYourTurn
	}
	return nil
}

// Select returns the legal destinations of the piece at row,col. Read only.
func (g *Game) Select(player board.Player, row, col int) ([]board.Pos, error) {
	if err := g.gate(player); err != nil {
		return nil, err
	}
	p, err := g.board.Get(row, col)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if p.Owner != player {
		return nil, ErrInvalidSelection
	}
	return rules.LegalDestinations(&g.board, row, col, player), nil
}

// Move relocates a piece. Legality is always recomputed from the current board.
func (g *Game) Move(player board.Player, from, to board.Pos) error {
	if err := g.gate(player); err != nil {
		return err
	}
	if !rules.IsLegal(&g.board, from, to, player) {
		return fmt.Errorf("%w: %v -> %v", ErrIllegalMove, from, to)
	}
	piece, _ := g.board.Get(from.Row, from.Col)
	piece.Moves++
	_ = g.board.Clear(from.Row, from.Col)
	_ = g.board.Place(to.Row, to.Col, piece)

	g.movesLeft[player]--
	g.lastAction[player] = ActionMove
	g.switchTurn()
	g.settle()
	return nil
}

// Skip passes the turn. A player may not skip on two consecutive turns.
func (g *Game) Skip(player board.Player) error {
	if err := g.gate(player); err != nil {
		return err
	}
	if g.lastAction[player] == ActionSkip {
		return ErrDoubleSkip
	}
	g.lastAction[player] = ActionSkip
	g.switchTurn()
	g.settle()
	return nil
}

func (g *Game) switchTurn() { g.turn = g.turn.Opponent() }

// settle ends the game when a budget is spent or a side has no pieces left.
// Piece count decides the winner; equal counts are a draw.
func (g *Game) settle() {
	p1, p2 := g.board.CountByPlayer(board.P1), g.board.CountByPlayer(board.P2)
	if g.movesLeft[board.P1] > 0 && g.movesLeft[board.P2] > 0 && p1 > 0 && p2 > 0 {
		return
	}
	now := time.Now()
	g.over = true
	g.Ended = &now
	switch {
	case p1 > p2:
		g.winner = board.P1
	case p2 > p1:
		g.winner = board.P2
	default:
		g.isDraw = true
	}
}

func (g *Game) Over() bool { return g.over }
func (g *Game) Turn() board.Player { return g.turn }
func (g *Game) Winner() board.Player { return g.winner }
func (g *Game) IsDraw() bool { return g.isDraw }
func (g *Game) Board() board.Board { return g.board }
func (g *Game) MovesLeft(p board.Player) int {
	if !p.Valid() {
		return 0
	}
	return g.movesLeft[p]
}
func (g *Game) LastAction(p board.Player) Action {
	if !p.Valid() {
		return ActionNone
	}
	return g.lastAction[p]
}
