package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/obslog"
)

type Aggregates struct {
	mu       sync.Mutex
	games    int
	binds    int
	moves    int
	captures int
	skips    int
	draws    int
	totalDur time.Duration
	wins     map[string]int
	perHour  map[time.Time]int
}

func NewAggregates() *Aggregates {
	return &Aggregates{wins: map[string]int{}, perHour: map[time.Time]int{}}
}

func (a *Aggregates) Add(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch ev.Event {
	case EventBind:
		a.binds++
	case EventMove:
		a.moves++
		if ev.Capture {
			a.captures++
		}
	case EventSkip:
		a.skips++
	case EventGameEnd:
		a.games++
		if d, err := time.ParseDuration(ev.Duration); err == nil {
			a.totalDur += d
		}
		if ev.Winner == "" || ev.Winner == "Draw" {
			a.draws++
		} else {
			a.wins[ev.Winner]++
		}
		a.perHour[ev.Ts.UTC().Truncate(time.Hour)]++
	}
}

type WinCount struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
}

type Summary struct {
	Games       int               `json:"games"`
	Binds       int               `json:"binds"`
	Moves       int               `json:"moves"`
	Captures    int               `json:"captures"`
	Skips       int               `json:"skips"`
	Draws       int               `json:"draws"`
	AvgDuration time.Duration     `json:"avg_duration"`
	Wins        []WinCount        `json:"wins"`
	GamesByHour map[time.Time]int `json:"games_by_hour"`
}

// Summary returns a copy of the counters, wins sorted by count then name.
func (a *Aggregates) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Summary{
		Games:       a.games,
		Binds:       a.binds,
		Moves:       a.moves,
		Captures:    a.captures,
		Skips:       a.skips,
		Draws:       a.draws,
		GamesByHour: make(map[time.Time]int, len(a.perHour)),
	}
	if a.games > 0 {
		s.AvgDuration = a.totalDur / time.Duration(a.games)
	}
	for p, n := range a.wins {
		s.Wins = append(s.Wins, WinCount{Player: p, Wins: n})
	}
	sort.Slice(s.Wins, func(i, j int) bool {
		if s.Wins[i].Wins != s.Wins[j].Wins {
			return s.Wins[i].Wins > s.Wins[j].Wins
		}
		return s.Wins[i].Player < s.Wins[j].Player
	})
	for h, n := range a.perHour {
		s.GamesByHour[h] = n
	}
	return s
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consume feeds every decodable message into agg until ctx is done or the
// reader is closed. Undecodable messages are logged and skipped.
func Consume(ctx context.Context, r MessageReader, agg *Aggregates) error {
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			obslog.L().Warn("analytics_bad_message", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		agg.Add(ev)
	}
}
