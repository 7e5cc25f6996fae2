package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/services"
)

type MobileUsageHandler struct {
	svc *services.MobileUsageService
}

func NewMobileUsageHandler(svc *services.MobileUsageService) *MobileUsageHandler {
	return &MobileUsageHandler{
		svc: svc,
	}
}

func (h *MobileUsageHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	reads := public.Group("/mobile-usage")
	{
		reads.GET("", h.Range)
		reads.GET("/recent", h.Recent)
		reads.GET("/:date", h.Get)
	}

	protected.PUT("/mobile-usage/:date", h.Upsert)
}

type upsertMobileUsageRequest struct {
	TotalUsage int64 `json:"total_usage"`
}

func (h *MobileUsageHandler) Upsert(c *gin.Context) {
	var req upsertMobileUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	usage, err := h.svc.Upsert(c.Request.Context(), c.Param("date"), req.TotalUsage)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *MobileUsageHandler) Get(c *gin.Context) {
	usage, err := h.svc.GetByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *MobileUsageHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	samples, err := h.svc.ListRecent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

func (h *MobileUsageHandler) Range(c *gin.Context) {
	samples, err := h.svc.ListRange(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}
