package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/analytics"
	"github.com/you/pawnduel/internal/config"
	"github.com/you/pawnduel/internal/obslog"
)

const reportEvery = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		obslog.Init("info", "console").Fatal("config", zap.Error(err))
	}
	log := obslog.Init(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	brokers := analytics.SplitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroupID})
	defer func() { _ = r.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregates()
	go func() {
		t := time.NewTicker(reportEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				report(log, agg.Summary())
			}
		}
	}()

	log.Info("consumer_started", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	if err := analytics.Consume(ctx, r, agg); err != nil {
		log.Error("consume", zap.Error(err))
	}
	report(log, agg.Summary())
}

func report(log *zap.Logger, s analytics.Summary) {
	fields := []zap.Field{
		zap.Int("games", s.Games),
		zap.Int("moves", s.Moves),
		zap.Int("captures", s.Captures),
		zap.Int("skips", s.Skips),
		zap.Int("draws", s.Draws),
		zap.Duration("avg_duration", s.AvgDuration),
	}
	if len(s.Wins) > 0 {
		fields = append(fields, zap.String("top_player", s.Wins[0].Player), zap.Int("top_wins", s.Wins[0].Wins))
	}
	log.Info("analytics_summary", fields...)
}
