package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	keyWins  = "scoreboard:wins"
	keyGames = "scoreboard:games"
	keyDraws = "scoreboard:draws"
)

// Scoreboard keeps running win totals in Redis.
type Scoreboard struct{ rdb *redis.Client }

func NewScoreboard(rdb *redis.Client) *Scoreboard { return &Scoreboard{rdb: rdb} }

func OpenScoreboard(ctx context.Context, url string) (*Scoreboard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Scoreboard{rdb: rdb}, nil
}

func (s *Scoreboard) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Scoreboard) SaveGameRecord(ctx context.Context, rec GameRecord) error {
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, keyGames)
	if rec.IsDraw() {
		pipe.Incr(ctx, keyDraws)
	} else {
		pipe.ZIncrBy(ctx, keyWins, 1, rec.Winner)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("scoreboard update: %w", err)
	}
	return nil
}

type Standings struct {
	Games int64   `json:"games"`
	Draws int64   `json:"draws"`
	Top   []LBRow `json:"top"`
}

// Standings returns totals plus the n players with most wins.
func (s *Scoreboard) Standings(ctx context.Context, n int64) (Standings, error) {
	out := Standings{Top: []LBRow{}}
	games, err := s.rdb.Get(ctx, keyGames).Int64()
	if err != nil && err != redis.Nil {
		return out, err
	}
	draws, err := s.rdb.Get(ctx, keyDraws).Int64()
	if err != nil && err != redis.Nil {
		return out, err
	}
	out.Games, out.Draws = games, draws

	top, err := s.rdb.ZRevRangeWithScores(ctx, keyWins, 0, n-1).Result()
	if err != nil {
		return out, err
	}
	for _, z := range top {
		out.Top = append(out.Top, LBRow{Player: fmt.Sprint(z.Member), Wins: int(z.Score)})
	}
	return out, nil
}
