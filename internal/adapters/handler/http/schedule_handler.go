package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/services"
)

type ScheduleHandler struct {
	svc *services.ScheduleService
}

func NewScheduleHandler(svc *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		svc: svc,
	}
}

func (h *ScheduleHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	reads := public.Group("/schedules")
	{
		reads.GET("", h.List)
		reads.GET("/enabled", h.ListEnabled)
		reads.GET("/:id", h.Get)
	}

	writes := protected.Group("/schedules")
	{
		writes.POST("", h.Create)
		writes.PUT("/:id", h.Update)
		writes.DELETE("/:id", h.Delete)
	}
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req services.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	schedule, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	var req services.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	schedule, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) ListEnabled(c *gin.Context) {
	schedules, err := h.svc.ListEnabled(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}
