package analytics

import "time"

const (
	EventBind    = "game.bind"
	EventMove    = "move"
	EventSkip    = "skip"
	EventGameEnd = "game.end"
)

// Event is one analytics record on the topic.
type Event struct {
	Event    string    `json:"event"`
	GameID   string    `json:"gameId"`
	Player   string    `json:"player,omitempty"`
	From     *[2]int   `json:"from,omitempty"`
	To       *[2]int   `json:"to,omitempty"`
	Capture  bool      `json:"capture,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Loser    string    `json:"loser,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Ts       time.Time `json:"ts"`
}
