package protocol

import (
	"errors"

	"github.com/you/pawnduel/internal/game"
)

// NoticeText maps a rejected intent to the text sent back to its sender.
// ok is false for errors that are swallowed silently.
func NoticeText(err error) (text string, ok bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameOver):
		return "", false
	case errors.Is(err, game.ErrDoubleSkip):
		return "Cannot skip twice!", true
	case errors.Is(err, game.ErrInvalidSelection):
		return "Invalid selection", true
	case errors.Is(err, game.ErrIllegalMove):
		return "Illegal move", true
	case errors.Is(err, ErrUnknownAction):
		return "Unknown action", true
	case errors.Is(err, ErrMalformed):
		return "Malformed message", true
	}
	return "Request rejected", true
}
