// Package server exposes the game over HTTP: the player websocket endpoint
// plus read-only result queries.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/obslog"
	"github.com/you/pawnduel/internal/session"
	"github.com/you/pawnduel/internal/store"
)

type History interface {
	QueryRecent(ctx context.Context, limit int) ([]store.GameRecord, error)
	QueryLeaderboard(ctx context.Context) ([]store.LBRow, error)
}

type Standings interface {
	Standings(ctx context.Context, n int64) (store.Standings, error)
}

// App wires the HTTP surface. History and Scores may be nil when the
// backing store is not configured.
type App struct {
	Hub     *session.Hub
	History History
	Scores  Standings
}

func (a *App) recentHandler(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not configured"})
		return
	}
	limit := 10
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := a.History.QueryRecent(c.Request.Context(), limit)
	if err != nil {
		obslog.L().Error("query_recent_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (a *App) leaderboardHandler(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not configured"})
		return
	}
	rows, err := a.History.QueryLeaderboard(c.Request.Context())
	if err != nil {
		obslog.L().Error("query_leaderboard_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (a *App) scoreboardHandler(c *gin.Context) {
	if a.Scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scoreboard not configured"})
		return
	}
	st, err := a.Scores.Standings(c.Request.Context(), 10)
	if err != nil {
		obslog.L().Error("query_scoreboard_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *App) wsHandler(c *gin.Context) {
	a.Hub.ServeWS(c.Writer, c.Request, c.Param("player"))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obslog.L().Debug("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func (a *App) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	// simple CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/ws/:player", a.wsHandler)
	r.GET("/recent", a.recentHandler)
	r.GET("/leaderboard", a.leaderboardHandler)
	r.GET("/scoreboard", a.scoreboardHandler)
	return r
}
