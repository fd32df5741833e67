package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/you/pawnduel/internal/board"
	"github.com/you/pawnduel/internal/game"
)

// Message is a server push. It is one of StateMessage, ValidMovesMessage or ErrorMessage.
type Message interface {
	isMessage()
}

type CellPayload struct {
	Player string `json:"player"`
	Moves  int    `json:"moves"`
}

// StateMessage is the full snapshot. It carries no type tag; clients tell it
// apart by the absence of one.
type StateMessage struct {
	Board         [board.Size][board.Size]*CellPayload `json:"board"`
	CurrentPlayer int                                  `json:"current_player"`
	MovesLeft     map[string]int                       `json:"moves_left"`
	LastAction    map[string]*string                   `json:"last_action"`
	GameOver      bool                                 `json:"game_over"`
	Winner        *string                              `json:"winner"`
}

type ValidMovesMessage struct {
	Type       string   `json:"type"`
	ValidMoves [][2]int `json:"valid_moves"`
	Selected   [2]int   `json:"selected"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (StateMessage) isMessage()      {}
func (ValidMovesMessage) isMessage() {}
func (ErrorMessage) isMessage()      {}

const (
	TypeValidMoves = "valid_moves"
	TypeError      = "error"

	WinnerDraw = "Draw"
)

func NewValidMoves(from board.Pos, dests []board.Pos) ValidMovesMessage {
	moves := make([][2]int, 0, len(dests))
	for _, d := range dests {
		moves = append(moves, [2]int{d.Row, d.Col})
	}
	return ValidMovesMessage{Type: TypeValidMoves, ValidMoves: moves, Selected: [2]int{from.Row, from.Col}}
}

func NewError(text string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: text}
}

func playerKey(p board.Player) string { return strconv.Itoa(int(p)) }

// FromSnapshot renders a game snapshot in wire form.
func FromSnapshot(s game.Snapshot) StateMessage {
	msg := StateMessage{
		CurrentPlayer: int(s.Turn),
		MovesLeft:     map[string]int{},
		LastAction:    map[string]*string{},
		GameOver:      s.Over,
	}
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			p, _ := s.Board.Get(r, c)
			if p.Empty() {
				continue
			}
			msg.Board[r][c] = &CellPayload{Player: p.Owner.String(), Moves: p.Moves}
		}
	}
	for _, p := range []board.Player{board.P1, board.P2} {
		msg.MovesLeft[playerKey(p)] = s.MovesLeft[p]
		if a := s.LastAction[p]; a != game.ActionNone {
			v := string(a)
			msg.LastAction[playerKey(p)] = &v
		} else {
			msg.LastAction[playerKey(p)] = nil
		}
	}
	if s.Over {
		w := WinnerDraw
		if !s.IsDraw {
			w = playerKey(s.Winner)
		}
		msg.Winner = &w
	}
	return msg
}

// ParseState decodes a state push back into a snapshot.
func ParseState(data []byte) (game.Snapshot, error) {
	var msg StateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return game.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg.Snapshot()
}

func (m StateMessage) Snapshot() (game.Snapshot, error) {
	s := game.Snapshot{
		Turn:       board.Player(m.CurrentPlayer),
		MovesLeft:  map[board.Player]int{},
		LastAction: map[board.Player]game.Action{},
		Over:       m.GameOver,
	}
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			cell := m.Board[r][c]
			if cell == nil {
				continue
			}
			owner, err := board.ParsePlayer(cell.Player)
			if err != nil {
				return game.Snapshot{}, fmt.Errorf("%w: cell %d,%d: %v", ErrMalformed, r, c, err)
			}
			_ = s.Board.Place(r, c, board.Piece{Owner: owner, Moves: cell.Moves})
		}
	}
	for _, p := range []board.Player{board.P1, board.P2} {
		s.MovesLeft[p] = m.MovesLeft[playerKey(p)]
		s.LastAction[p] = game.ActionNone
		if a := m.LastAction[playerKey(p)]; a != nil {
			s.LastAction[p] = game.Action(*a)
		}
	}
	if m.Winner != nil {
		switch *m.Winner {
		case WinnerDraw:
			s.IsDraw = true
		case "1":
			s.Winner = board.P1
		case "2":
			s.Winner = board.P2
		default:
			return game.Snapshot{}, fmt.Errorf("%w: winner %q", ErrMalformed, *m.Winner)
		}
	}
	return s, nil
}

// Encode marshals a server push.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil message")
	}
	return json.Marshal(m)
}
