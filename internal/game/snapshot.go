package game

import "github.com/you/pawnduel/internal/board"

// Snapshot is a detached copy of the full game state.
type Snapshot struct {
	Board      board.Board
	Turn       board.Player
	MovesLeft  map[board.Player]int
	LastAction map[board.Player]Action
	Over       bool
	Winner     board.Player
	IsDraw     bool
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Board: g.board,
		Turn:  g.turn,
		MovesLeft: map[board.Player]int{
			board.P1: g.movesLeft[board.P1],
			board.P2: g.movesLeft[board.P2],
		},
		LastAction: map[board.Player]Action{
			board.P1: g.lastAction[board.P1],
			board.P2: g.lastAction[board.P2],
		},
		Over:   g.over,
		Winner: g.winner,
		IsDraw: g.isDraw,
	}
}

// Result labels the outcome the way game records store it:
// winner and loser are "P1"/"P2", or "Draw"/"None".
func (s Snapshot) Result() (winner, loser string) {
	if s.IsDraw || !s.Winner.Valid() {
		return "Draw", "None"
	}
	return s.Winner.String(), s.Winner.Opponent().String()
}
