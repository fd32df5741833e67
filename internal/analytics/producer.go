// Package analytics publishes gameplay events to Kafka and aggregates them on
// the consumer side.
package analytics

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/obslog"
)

// SplitBrokers turns "a:9092, b:9092" into its non-empty addresses.
func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type Analytics struct{ writer *kafka.Writer }

// NewAnalytics returns nil when brokers is empty; a nil *Analytics drops every event.
func NewAnalytics(brokers, topic string) *Analytics {
	if len(SplitBrokers(brokers)) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(SplitBrokers(brokers)...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// gameplay never waits on the broker
		Async: true,
		Completion: func(_ []kafka.Message, err error) {
			if err != nil {
				obslog.L().Warn("kafka_emit_failed", zap.Error(err))
			}
		},
	}
	return &Analytics{writer: w}
}

func (a *Analytics) Emit(ev Event) {
	if a == nil || a.writer == nil {
		return
	}
	if ev.Ts.IsZero() {
		ev.Ts = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		obslog.L().Warn("kafka_encode_failed", zap.String("event", ev.Event), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.GameID), Value: b}); err != nil {
		obslog.L().Warn("kafka_emit_failed", zap.String("event", ev.Event), zap.Error(err))
	}
}

func (a *Analytics) Close() error {
	if a == nil || a.writer == nil {
		return nil
	}
	return a.writer.Close()
}
