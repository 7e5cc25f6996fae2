package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/services"
)

type StatsHandler struct {
	svc        *services.StatsService
	comparison *services.ComparisonService
}

func NewStatsHandler(svc *services.StatsService, comparison *services.ComparisonService) *StatsHandler {
	return &StatsHandler{
		svc:        svc,
		comparison: comparison,
	}
}

func (h *StatsHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	stats := public.Group("/stats")
	{
		stats.GET("/daily", h.DailyRange)
		stats.GET("/daily/comparison", h.CompareDaily)
		stats.GET("/daily/:date", h.GetDaily)

		stats.GET("/weekly/recent", h.RecentWeekly)
		stats.GET("/weekly/comparison", h.CompareWeekly)
		stats.GET("/weekly/:week", h.GetWeekly)

		stats.GET("/monthly/recent", h.RecentMonthly)
		stats.GET("/monthly/comparison", h.CompareMonthly)
		stats.GET("/monthly/:month", h.GetMonthly)
	}

	writes := protected.Group("/stats")
	{
		writes.POST("/daily/:date/refresh", h.RefreshDaily)
		writes.POST("/weekly/:week/refresh", h.RefreshWeekly)
		writes.POST("/monthly/:month/refresh", h.RefreshMonthly)
		writes.PUT("/weekly/:week/notes", h.UpdateNotes)
	}
}

func (h *StatsHandler) GetDaily(c *gin.Context) {
	stats, err := h.svc.GetDaily(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) DailyRange(c *gin.Context) {
	stats, err := h.svc.ListDailyRange(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RefreshDaily(c *gin.Context) {
	stats, err := h.svc.RefreshDaily(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetWeekly(c *gin.Context) {
	stats, err := h.svc.GetWeekly(c.Request.Context(), c.Param("week"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RecentWeekly(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	stats, err := h.svc.ListRecentWeekly(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RefreshWeekly(c *gin.Context) {
	stats, err := h.svc.RefreshWeekly(c.Request.Context(), c.Param("week"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *StatsHandler) UpdateNotes(c *gin.Context) {
	var req updateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	stats, err := h.svc.UpdateWeeklyNotes(c.Request.Context(), c.Param("week"), req.Notes)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RefreshMonthly(c *gin.Context) {
	stats, err := h.svc.RefreshMonthly(c.Request.Context(), c.Param("month"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetMonthly(c *gin.Context) {
	stats, err := h.svc.GetMonthly(c.Request.Context(), c.Param("month"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RecentMonthly(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	stats, err := h.svc.ListRecentMonthly(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Comparison endpoints read the previous completed period's cached rollup.
// 404 means the period was never materialized.

func (h *StatsHandler) CompareDaily(c *gin.Context) {
	stats, err := h.comparison.Yesterday(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": h.comparison.YesterdayKey(), "stats": stats})
}

func (h *StatsHandler) CompareWeekly(c *gin.Context) {
	stats, err := h.comparison.LastWeek(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": h.comparison.LastWeekKey(), "stats": stats})
}

func (h *StatsHandler) CompareMonthly(c *gin.Context) {
	stats, err := h.comparison.LastMonth(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": h.comparison.LastMonthKey(), "stats": stats})
}
