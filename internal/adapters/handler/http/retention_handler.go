package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/services"
)

// RetentionHandler exposes the operator surface of the retention passes.
// The engine never schedules them itself; an external cron calls in.
type RetentionHandler struct {
	svc *services.RetentionService
}

func NewRetentionHandler(svc *services.RetentionService) *RetentionHandler {
	return &RetentionHandler{
		svc: svc,
	}
}

func (h *RetentionHandler) RegisterRoutes(protected *gin.RouterGroup) {
	retention := protected.Group("/retention")
	{
		retention.POST("/cleanup", h.Cleanup)
		retention.POST("/mobile-usage/trim", h.TrimMobileUsage)
	}
}

type cleanupRequest struct {
	// Cutoff applies one explicit cutoff to every table. When absent the
	// default per-table policy derives cutoffs from the current time.
	Cutoff *time.Time `json:"cutoff,omitempty"`
}

func (h *RetentionHandler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	ctx := c.Request.Context()

	var report domain.RetentionReport
	var err error
	if req.Cutoff != nil {
		report, err = h.svc.CleanupBefore(ctx, *req.Cutoff)
	} else {
		report, err = h.svc.CleanupWithPolicy(ctx, time.Now().UTC(), services.DefaultRetentionPolicy())
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *RetentionHandler) TrimMobileUsage(c *gin.Context) {
	removed, err := h.svc.TrimMobileUsage(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
