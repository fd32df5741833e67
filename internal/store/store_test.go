package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScoreboard(t *testing.T) *Scoreboard {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	sb, err := OpenScoreboard(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sb.Close() })
	return sb
}

func rec(winner, loser string) GameRecord {
	return GameRecord{
		GameID:    uuid.New(),
		Player1ID: "P1",
		Player2ID: "P2",
		Winner:    winner,
		Loser:     loser,
		StartedAt: time.Now().Add(-time.Minute),
		Timestamp: time.Now(),
	}
}

func TestScoreboardCountsWinsAndDraws(t *testing.T) {
	sb := newTestScoreboard(t)
	ctx := context.Background()

	require.NoError(t, sb.SaveGameRecord(ctx, rec("P1", "P2")))
	require.NoError(t, sb.SaveGameRecord(ctx, rec("P2", "P1")))
	require.NoError(t, sb.SaveGameRecord(ctx, rec("P1", "P2")))
	require.NoError(t, sb.SaveGameRecord(ctx, rec(WinnerDraw, LoserNone)))

	st, err := sb.Standings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Games)
	assert.Equal(t, int64(1), st.Draws)
	assert.Equal(t, []LBRow{{Player: "P1", Wins: 2}, {Player: "P2", Wins: 1}}, st.Top)
}

func TestScoreboardEmpty(t *testing.T) {
	sb := newTestScoreboard(t)
	st, err := sb.Standings(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, st.Games)
	assert.Empty(t, st.Top)
}

func TestOpenScoreboardBadURL(t *testing.T) {
	_, err := OpenScoreboard(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestScoreboardFailsWhenRedisGone(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	sb := NewScoreboard(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	mr.Close()
	assert.Error(t, sb.SaveGameRecord(context.Background(), rec("P1", "P2")))
}

type fakeRecorder struct {
	got []GameRecord
	err error
}

func (f *fakeRecorder) SaveGameRecord(_ context.Context, r GameRecord) error {
	f.got = append(f.got, r)
	return f.err
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeRecorder{}, &fakeRecorder{err: boom}
	m := Multi{a, nil, b}

	r := rec("P2", "P1")
	err := m.SaveGameRecord(context.Background(), r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []GameRecord{r}, a.got)
	assert.Equal(t, []GameRecord{r}, b.got)

	assert.NoError(t, Multi{a}.SaveGameRecord(context.Background(), r))
}

// Runs against a real database when POSTGRES_TEST_DSN is set.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := OpenDB(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.AutoMigrate(ctx))

	r := rec("P1", "P2")
	require.NoError(t, db.SaveGameRecord(ctx, r))
	require.NoError(t, db.SaveGameRecord(ctx, r), "duplicate ids are ignored")

	recent, err := db.QueryRecent(ctx, 100)
	require.NoError(t, err)
	found := false
	for _, got := range recent {
		if got.GameID == r.GameID {
			found = true
			assert.Equal(t, r.Winner, got.Winner)
		}
	}
	assert.True(t, found)

	lb, err := db.QueryLeaderboard(ctx)
	require.NoError(t, err)
	for _, row := range lb {
		assert.NotEqual(t, WinnerDraw, row.Player)
	}
}
