package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	msgs []kafka.Message
	end  error
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, r.end
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func msg(t *testing.T, ev Event) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestAggregates(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 25, 0, 0, time.UTC)
	agg := NewAggregates()
	agg.Add(Event{Event: EventBind, GameID: "g1"})
	agg.Add(Event{Event: EventMove, GameID: "g1"})
	agg.Add(Event{Event: EventMove, GameID: "g1", Capture: true})
	agg.Add(Event{Event: EventSkip, GameID: "g1"})
	agg.Add(Event{Event: EventGameEnd, GameID: "g1", Winner: "alice", Duration: "2m", Ts: ts})
	agg.Add(Event{Event: EventGameEnd, GameID: "g2", Winner: "Draw", Duration: "4m", Ts: ts})
	agg.Add(Event{Event: EventGameEnd, GameID: "g3", Winner: "bob", Duration: "bogus", Ts: ts})
	agg.Add(Event{Event: "something.else"})

	s := agg.Summary()
	assert.Equal(t, 3, s.Games)
	assert.Equal(t, 1, s.Binds)
	assert.Equal(t, 2, s.Moves)
	assert.Equal(t, 1, s.Captures)
	assert.Equal(t, 1, s.Skips)
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 2*time.Minute, s.AvgDuration)
	assert.Equal(t, []WinCount{{Player: "alice", Wins: 1}, {Player: "bob", Wins: 1}}, s.Wins)
	assert.Equal(t, 3, s.GamesByHour[time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)])
}

func TestConsumeSkipsBadMessages(t *testing.T) {
	r := &sliceReader{
		msgs: []kafka.Message{
			msg(t, Event{Event: EventMove}),
			{Value: []byte("not json")},
			msg(t, Event{Event: EventSkip}),
		},
		end: context.Canceled,
	}
	agg := NewAggregates()
	require.NoError(t, Consume(context.Background(), r, agg))
	s := agg.Summary()
	assert.Equal(t, 1, s.Moves)
	assert.Equal(t, 1, s.Skips)
}

func TestConsumeReturnsReaderErrors(t *testing.T) {
	r := &sliceReader{end: io.EOF}
	err := Consume(context.Background(), r, NewAggregates())
	assert.True(t, errors.Is(err, io.EOF))
}

func TestNilAnalyticsIsSafe(t *testing.T) {
	a := NewAnalytics("", "topic")
	assert.Nil(t, a)
	a.Emit(Event{Event: EventMove})
	assert.NoError(t, a.Close())
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(" , "))
	assert.Nil(t, NewAnalytics(" ", "t"))
}
