package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/services"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{
		svc: svc,
	}
}

func (h *SessionHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	reads := public.Group("/sessions")
	{
		reads.GET("/recent", h.Recent)
		reads.GET("", h.List)
		reads.GET("/overview", h.Overview)
		reads.GET("/focus-time", h.FocusTime)
		reads.GET("/:id", h.Get)
		reads.GET("/:id/usage", h.Usage)
	}

	writes := protected.Group("/sessions")
	{
		writes.POST("", h.Insert)
		writes.POST("/open", h.Start)
		writes.POST("/:id/finalize", h.Finalize)
	}
}

func (h *SessionHandler) Insert(c *gin.Context) {
	var req services.InsertSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.svc.InsertSessionWithUsage(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req services.StartSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.svc.StartSession(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) Finalize(c *gin.Context) {
	var req services.FinalizeSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	req.ID = c.Param("id")

	session, err := h.svc.FinalizeSession(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Usage(c *gin.Context) {
	usage, err := h.svc.SessionUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *SessionHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	sessions, err := h.svc.RecentSessions(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// List serves either a single date key (?date=) or a start-time range
// (?from=&to=, RFC3339).
func (h *SessionHandler) List(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		sessions, err := h.svc.SessionsForDate(c.Request.Context(), date)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessions)
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date (use RFC3339)"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date (use RFC3339)"})
		return
	}

	sessions, err := h.svc.SessionsForRange(c.Request.Context(), from, to)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Overview(c *gin.Context) {
	overview, err := h.svc.GetOverview(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// FocusTime sums completed focus time over a start-time range.
func (h *SessionHandler) FocusTime(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date (use RFC3339)"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date (use RFC3339)"})
		return
	}

	total, err := h.svc.FocusTimeForRange(c.Request.Context(), from, to)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_focus_time": total})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrScheduleNotFound),
		errors.Is(err, domain.ErrMobileUsageNotFound),
		errors.Is(err, domain.ErrStatsNotFound),
		errors.Is(err, domain.ErrNoSessions):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrUsageSessionMismatch),
		errors.Is(err, domain.ErrSessionFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidPeriodKey),
		errors.Is(err, domain.ErrInvalidSessionWindow),
		errors.Is(err, domain.ErrInvalidStartTime),
		errors.Is(err, domain.ErrInvalidFocusScore),
		errors.Is(err, domain.ErrInvalidUsage),
		errors.Is(err, domain.ErrScheduleNameEmpty),
		errors.Is(err, domain.ErrScheduleNameTooLong),
		errors.Is(err, domain.ErrInvalidClockTime),
		errors.Is(err, domain.ErrInvalidTimeWindow),
		errors.Is(err, domain.ErrInvalidRepeatDays),
		errors.Is(err, domain.ErrInvalidPreNotify):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrRetentionInterrupted):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "retention pass interrupted",
			"retryable": true,
		})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
