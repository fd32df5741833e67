// Package protocol defines the JSON messages exchanged with player clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/you/pawnduel/internal/board"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownAction = errors.New("unknown action")
)

// Intent is a decoded client request. It is one of SelectIntent, MoveIntent or SkipIntent.
type Intent interface {
	Sender() board.Player
	isIntent()
}

type SelectIntent struct {
	Player board.Player
	At     board.Pos
}

type MoveIntent struct {
	Player board.Player
	From   board.Pos
	To     board.Pos
}

type SkipIntent struct {
	Player board.Player
}

func (i SelectIntent) Sender() board.Player { return i.Player }
func (i MoveIntent) Sender() board.Player   { return i.Player }
func (i SkipIntent) Sender() board.Player   { return i.Player }

func (SelectIntent) isIntent() {}
func (MoveIntent) isIntent()   {}
func (SkipIntent) isIntent()   {}

// rawIntent is the wire shape: {action, player, row, col, selected}.
type rawIntent struct {
	Action   string `json:"action"`
	Player   int    `json:"player"`
	Row      *int   `json:"row"`
	Col      *int   `json:"col"`
	Selected []int  `json:"selected"`
}

// DecodeIntent parses and shape-checks one client message. Board bounds and
// turn ownership are left to the game.
func DecodeIntent(data []byte) (Intent, error) {
	var raw rawIntent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	player := board.Player(raw.Player)
	if raw.Player < 0 || raw.Player > 2 {
		player = board.None
	}

	switch raw.Action {
	case "select":
		if raw.Row == nil || raw.Col == nil {
			return nil, fmt.Errorf("%w: select needs row and col", ErrMalformed)
		}
		return SelectIntent{Player: player, At: board.Pos{Row: *raw.Row, Col: *raw.Col}}, nil
	case "move":
		if raw.Row == nil || raw.Col == nil || len(raw.Selected) != 2 {
			return nil, fmt.Errorf("%w: move needs row, col and selected", ErrMalformed)
		}
		return MoveIntent{
			Player: player,
			From:   board.Pos{Row: raw.Selected[0], Col: raw.Selected[1]},
			To:     board.Pos{Row: *raw.Row, Col: *raw.Col},
		}, nil
	case "skip":
		return SkipIntent{Player: player}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformed)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, raw.Action)
}

// EncodeIntent is the client-side counterpart of DecodeIntent.
func EncodeIntent(in Intent) ([]byte, error) {
	raw := rawIntent{Player: int(in.Sender())}
	switch v := in.(type) {
	case SelectIntent:
		raw.Action = "select"
		raw.Row, raw.Col = &v.At.Row, &v.At.Col
	case MoveIntent:
		raw.Action = "move"
		raw.Row, raw.Col = &v.To.Row, &v.To.Col
		raw.Selected = []int{v.From.Row, v.From.Col}
	case SkipIntent:
		raw.Action = "skip"
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, in)
	}
	return json.Marshal(raw)
}
