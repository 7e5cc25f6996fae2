package http

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/livequery"
	"github.com/grepguru/zenlock-engine/internal/core/services"
)

// LiveHandler streams live-query results over SSE. Each connection owns one
// registry subscription: the initial snapshot arrives immediately, then a
// fresh recomputation after every commit touching a dependency table.
type LiveHandler struct {
	registry *livequery.Registry
	sessions *services.SessionService
	stats    *services.StatsService
}

func NewLiveHandler(registry *livequery.Registry, sessions *services.SessionService, stats *services.StatsService) *LiveHandler {
	return &LiveHandler{
		registry: registry,
		sessions: sessions,
		stats:    stats,
	}
}

func (h *LiveHandler) RegisterRoutes(router *gin.RouterGroup) {
	live := router.Group("/live")
	{
		live.GET("/sessions/recent", h.RecentSessions)
		live.GET("/stats/daily/:date", h.DailyStats)
	}
}

func (h *LiveHandler) RecentSessions(c *gin.Context) {
	sub := h.registry.Subscribe(
		[]domain.Table{domain.TableSessions, domain.TableAppUsage},
		func(ctx context.Context) (any, error) {
			return h.sessions.RecentSessions(ctx, services.DefaultRecentLimit)
		},
	)
	h.stream(c, sub)
}

func (h *LiveHandler) DailyStats(c *gin.Context) {
	date := c.Param("date")
	if err := domain.ValidateDateKey(date); err != nil {
		handleError(c, err)
		return
	}

	sub := h.registry.Subscribe(
		[]domain.Table{domain.TableDailyStats},
		func(ctx context.Context) (any, error) {
			stats, err := h.stats.GetDaily(ctx, date)
			if err == domain.ErrStatsNotFound {
				// Absent is a legal live state, streamed as null.
				return nil, nil
			}
			return stats, err
		},
	)
	h.stream(c, sub)
}

func (h *LiveHandler) stream(c *gin.Context, sub *livequery.Subscription) {
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case res, ok := <-sub.Results():
			if !ok {
				return false
			}
			if res.Err != nil {
				c.SSEvent("error", gin.H{"error": res.Err.Error()})
				return true
			}
			c.SSEvent("update", res.Value)
			return true
		}
	})
}
