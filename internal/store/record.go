// Package store persists finished games. Nothing here is on the gameplay path:
// callers invoke recorders in the background and only log failures.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GameRecord is the append-only row written once per finished game.
// Winner and Loser hold player ids, or "Draw" and "None" for a draw.
type GameRecord struct {
	GameID    uuid.UUID `json:"game_id"`
	Player1ID string    `json:"player1_id"`
	Player2ID string    `json:"player2_id"`
	Winner    string    `json:"winner"`
	Loser     string    `json:"loser"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	WinnerDraw = "Draw"
	LoserNone  = "None"
)

func (r GameRecord) IsDraw() bool { return r.Winner == WinnerDraw }

type Recorder interface {
	SaveGameRecord(ctx context.Context, rec GameRecord) error
}

// Multi fans a record out to every recorder and joins their errors.
type Multi []Recorder

func (m Multi) SaveGameRecord(ctx context.Context, rec GameRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.SaveGameRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
