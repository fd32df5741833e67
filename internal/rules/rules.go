// Package rules computes where a piece may move. Nothing here mutates a board.
package rules

import "github.com/you/pawnduel/internal/board"

// up, down, left, right
var dirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Reach is how many cells a piece with the given move count travels next:
// 1 when the next move number is odd, 2 when it is even.
func Reach(moves int) int {
	if (moves+1)%2 == 1 {
		return 1
	}
	return 2
}

// LegalDestinations returns every cell the piece at row,col may move to on
// behalf of player. It returns nil when the cell is empty, foreign or off the board.
func LegalDestinations(b *board.Board, row, col int, player board.Player) []board.Pos {
	piece, err := b.Get(row, col)
	if err != nil || piece.Empty() || piece.Owner != player {
		return nil
	}
	reach := Reach(piece.Moves)
	from := board.Pos{Row: row, Col: col}

	var out []board.Pos
	for _, d := range dirs {
		for step := 1; step <= reach; step++ {
			to := from.Add(d[0]*step, d[1]*step)
			if !to.InBounds() {
				break
			}
			occ, _ := b.Get(to.Row, to.Col)
			if occ.Owner == player {
				break
			}
			if occ.Owner == player.Opponent() {
				// capture ends the walk; nothing past it is reachable
				out = append(out, to)
				break
			}
			if step == reach {
				out = append(out, to)
			}
		}
	}
	return out
}

// IsLegal reports whether to is among the legal destinations of the piece at from.
func IsLegal(b *board.Board, from, to board.Pos, player board.Player) bool {
	for _, p := range LegalDestinations(b, from.Row, from.Col, player) {
		if p == to {
			return true
		}
	}
	return false
}
