package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct{ Pool *pgxpool.Pool }

func OpenDB(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db != nil && db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) AutoMigrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_records (
			game_id    UUID PRIMARY KEY,
			player1_id TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			winner     TEXT NOT NULL,
			loser      TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_records_timestamp ON game_records(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveGameRecord is idempotent per game id.
func (db *DB) SaveGameRecord(ctx context.Context, rec GameRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO game_records (game_id, player1_id, player2_id, winner, loser, started_at, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO NOTHING
	`, rec.GameID, rec.Player1ID, rec.Player2ID, rec.Winner, rec.Loser, rec.StartedAt, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("insert game record %s: %w", rec.GameID, err)
	}
	return nil
}

func (db *DB) QueryRecent(ctx context.Context, limit int) ([]GameRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT game_id, player1_id, player2_id, winner, loser, started_at, timestamp
		FROM game_records
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRecord{}
	for rows.Next() {
		var r GameRecord
		if err := rows.Scan(&r.GameID, &r.Player1ID, &r.Player2ID, &r.Winner, &r.Loser, &r.StartedAt, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type LBRow struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
}

func (db *DB) QueryLeaderboard(ctx context.Context) ([]LBRow, error) {
	rows, err := db.Pool.Query(ctx, `SELECT winner AS player, COUNT(*) AS wins
		FROM game_records WHERE winner <> $1 GROUP BY winner ORDER BY wins DESC LIMIT 50`, WinnerDraw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Player, &r.Wins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
