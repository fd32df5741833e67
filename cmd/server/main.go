package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/analytics"
	"github.com/you/pawnduel/internal/config"
	"github.com/you/pawnduel/internal/obslog"
	"github.com/you/pawnduel/internal/server"
	"github.com/you/pawnduel/internal/session"
	"github.com/you/pawnduel/internal/store"
)

func main() {
	_ = os.Setenv("TZ", "UTC")
	cfg, err := config.Load()
	if err != nil {
		obslog.Init("info", "console").Fatal("config", zap.Error(err))
	}
	log := obslog.Init(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &server.App{}
	var recorders store.Multi

	if cfg.PostgresDSN != "" {
		db, err := store.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		app.History = db
		recorders = append(recorders, db)
	}
	if cfg.RedisURL != "" {
		sb, err := store.OpenScoreboard(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = sb.Close() }()
		app.Scores = sb
		recorders = append(recorders, sb)
	}

	events := analytics.NewAnalytics(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() { _ = events.Close() }()

	opts := session.Options{
		MoveBudget:   cfg.MoveBudget,
		OutboxSize:   cfg.OutboxSize,
		PingInterval: 30 * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutMS) * time.Millisecond,
	}
	if len(recorders) > 0 {
		opts.Recorder = recorders
	}
	if events != nil {
		opts.Events = events
	}
	app.Hub = session.NewHub(opts)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: app.Routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr),
			zap.Bool("postgres", app.History != nil),
			zap.Bool("redis", app.Scores != nil),
			zap.Bool("kafka", events != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	// hijacked websocket connections are not covered by Shutdown
	app.Hub.Close()
}
