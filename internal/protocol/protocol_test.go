package protocol

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/pawnduel/internal/board"
	"github.com/you/pawnduel/internal/game"
)

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Intent
		wantErr error
	}{
		{
			name: "select",
			in:   `{"action":"select","player":1,"row":1,"col":3}`,
			want: SelectIntent{Player: board.P1, At: board.Pos{Row: 1, Col: 3}},
		},
		{
			name: "move",
			in:   `{"action":"move","player":2,"row":5,"col":0,"selected":[6,0]}`,
			want: MoveIntent{Player: board.P2, From: board.Pos{Row: 6, Col: 0}, To: board.Pos{Row: 5, Col: 0}},
		},
		{
			name: "skip",
			in:   `{"action":"skip","player":1}`,
			want: SkipIntent{Player: board.P1},
		},
		{
			name: "unknown player collapses to none",
			in:   `{"action":"skip","player":7}`,
			want: SkipIntent{Player: board.None},
		},
		{name: "not json", in: `{nope`, wantErr: ErrMalformed},
		{name: "missing action", in: `{"player":1}`, wantErr: ErrMalformed},
		{name: "select without col", in: `{"action":"select","player":1,"row":1}`, wantErr: ErrMalformed},
		{name: "move without selected", in: `{"action":"move","player":1,"row":2,"col":3}`, wantErr: ErrMalformed},
		{name: "move with short selected", in: `{"action":"move","player":1,"row":2,"col":3,"selected":[1]}`, wantErr: ErrMalformed},
		{name: "unknown action", in: `{"action":"resign","player":1}`, wantErr: ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeIntent([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeIntentMatchesDecoder(t *testing.T) {
	intents := []Intent{
		SelectIntent{Player: board.P2, At: board.Pos{Row: 6, Col: 1}},
		MoveIntent{Player: board.P1, From: board.Pos{Row: 1, Col: 1}, To: board.Pos{Row: 2, Col: 1}},
		SkipIntent{Player: board.P2},
	}
	for _, in := range intents {
		data, err := EncodeIntent(in)
		require.NoError(t, err)
		out, err := DecodeIntent(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestStateMessageShape(t *testing.T) {
	g := game.New(100)
	require.NoError(t, g.Skip(board.P1))

	data, err := Encode(FromSnapshot(g.Snapshot()))
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.NotContains(t, generic, "type")
	assert.Equal(t, float64(2), generic["current_player"])
	assert.Equal(t, map[string]any{"1": float64(100), "2": float64(100)}, generic["moves_left"])
	assert.Equal(t, map[string]any{"1": "skip", "2": nil}, generic["last_action"])
	assert.Equal(t, false, generic["game_over"])
	assert.Nil(t, generic["winner"])

	rows := generic["board"].([]any)
	require.Len(t, rows, 8)
	assert.Equal(t, map[string]any{"player": "P1", "moves": float64(0)}, rows[0].([]any)[0])
	assert.Nil(t, rows[3].([]any)[3])
	assert.Equal(t, map[string]any{"player": "P2", "moves": float64(0)}, rows[7].([]any)[7])
}

func TestStateRoundTrip(t *testing.T) {
	g := game.New(20)
	require.NoError(t, g.Move(board.P1, board.Pos{Row: 1, Col: 4}, board.Pos{Row: 2, Col: 4}))
	require.NoError(t, g.Skip(board.P2))
	require.NoError(t, g.Move(board.P1, board.Pos{Row: 2, Col: 4}, board.Pos{Row: 4, Col: 4}))

	want := g.Snapshot()
	data, err := Encode(FromSnapshot(want))
	require.NoError(t, err)
	got, err := ParseState(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStateRoundTripAfterGameOver(t *testing.T) {
	var b board.Board
	require.NoError(t, b.Place(3, 3, board.Piece{Owner: board.P2, Moves: 2}))
	require.NoError(t, b.Place(2, 3, board.Piece{Owner: board.P1, Moves: 5}))
	g := game.FromBoard(b, board.P2, 9, 9)
	require.NoError(t, g.Move(board.P2, board.Pos{Row: 3, Col: 3}, board.Pos{Row: 2, Col: 3}))
	require.True(t, g.Over())

	msg := FromSnapshot(g.Snapshot())
	require.NotNil(t, msg.Winner)
	assert.Equal(t, "2", *msg.Winner)

	data, err := Encode(msg)
	require.NoError(t, err)
	got, err := ParseState(data)
	require.NoError(t, err)
	assert.Equal(t, g.Snapshot(), got)
}

func TestDrawWinnerLabel(t *testing.T) {
	msg := FromSnapshot(game.Snapshot{Over: true, IsDraw: true, Turn: board.P1})
	require.NotNil(t, msg.Winner)
	assert.Equal(t, "Draw", *msg.Winner)
}

func TestParseStateRejectsBadCells(t *testing.T) {
	msg := FromSnapshot(game.New(5).Snapshot())
	msg.Board[0][0].Player = "P9"
	data, err := Encode(msg)
	require.NoError(t, err)
	_, err = ParseState(data)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidMovesMessage(t *testing.T) {
	data, err := Encode(NewValidMoves(board.Pos{Row: 1, Col: 3}, []board.Pos{{Row: 2, Col: 3}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"valid_moves","valid_moves":[[2,3]],"selected":[1,3]}`, string(data))

	data, err = Encode(NewValidMoves(board.Pos{Row: 0, Col: 0}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"valid_moves","valid_moves":[],"selected":[0,0]}`, string(data))
}

func TestNoticeText(t *testing.T) {
	tests := []struct {
		err    error
		want   string
		notify bool
	}{
		{game.ErrDoubleSkip, "Cannot skip twice!", true},
		{fmt.Errorf("%w: (1,1) -> (5,5)", game.ErrIllegalMove), "Illegal move", true},
		{game.ErrInvalidSelection, "Invalid selection", true},
		{ErrUnknownAction, "Unknown action", true},
		{ErrMalformed, "Malformed message", true},
		{game.ErrNotYourTurn, "", false},
		{game.ErrGameOver, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		text, ok := NoticeText(tt.err)
		assert.Equal(t, tt.notify, ok, "%v", tt.err)
		assert.Equal(t, tt.want, text, "%v", tt.err)
	}
}
