// Package board holds the 8x8 grid and the pieces on it.
package board

import (
	"errors"
	"fmt"
)

// Size is the width and height of the board.
const Size = 8

var ErrOutOfRange = errors.New("cell out of range")

type Player int8

const (
	None Player = 0
	P1   Player = 1
	P2   Player = 2
)

func (p Player) Valid() bool { return p == P1 || p == P2 }

// Opponent returns the other player. None has no opponent.
func (p Player) Opponent() Player {
	switch p {
	case P1:
		return P2
	case P2:
		return P1
	}
	return None
}

func (p Player) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	}
	return "None"
}

// ParsePlayer accepts the "P1"/"P2" labels used on the wire.
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "P1":
		return P1, nil
	case "P2":
		return P2, nil
	}
	return None, fmt.Errorf("unknown player %q", s)
}

// Piece is a token owned by a player. The zero value is an empty cell.
type Piece struct {
	Owner Player
	Moves int
}

func (p Piece) Empty() bool { return p.Owner == None }

type Pos struct {
	Row int
	Col int
}

func (p Pos) InBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

func (p Pos) Add(dr, dc int) Pos { return Pos{Row: p.Row + dr, Col: p.Col + dc} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Board is a value type; copying it copies every cell.
type Board struct {
	cells [Size][Size]Piece
}

// NewInitial returns the opening layout: rows 0-1 for P1, rows 6-7 for P2.
func NewInitial() Board {
	var b Board
	for c := 0; c < Size; c++ {
		b.cells[0][c] = Piece{Owner: P1}
		b.cells[1][c] = Piece{Owner: P1}
		b.cells[Size-2][c] = Piece{Owner: P2}
		b.cells[Size-1][c] = Piece{Owner: P2}
	}
	return b
}

func (b *Board) Get(row, col int) (Piece, error) {
	if !(Pos{row, col}).InBounds() {
		return Piece{}, fmt.Errorf("get %d,%d: %w", row, col, ErrOutOfRange)
	}
	return b.cells[row][col], nil
}

// Place overwrites whatever occupies the cell.
func (b *Board) Place(row, col int, p Piece) error {
	if !(Pos{row, col}).InBounds() {
		return fmt.Errorf("place %d,%d: %w", row, col, ErrOutOfRange)
	}
	b.cells[row][col] = p
	return nil
}

func (b *Board) Clear(row, col int) error {
	if !(Pos{row, col}).InBounds() {
		return fmt.Errorf("clear %d,%d: %w", row, col, ErrOutOfRange)
	}
	b.cells[row][col] = Piece{}
	return nil
}

func (b *Board) CountByPlayer(p Player) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c].Owner == p && p != None {
				n++
			}
		}
	}
	return n
}
