package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/progress"
)

type ProgressHandler struct {
	agg *progress.Aggregator
	log *logger.Logger
}

func NewProgressHandler(agg *progress.Aggregator, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{agg: agg, log: log.With("handler", "progress")}
}

// GET /api/users/:id/progress
func (h *ProgressHandler) GetSummary(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	summary, err := h.agg.Summary(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, summary)
}

// GET /api/users/:id/progress/trend
func (h *ProgressHandler) GetDailyTrend(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > 365 {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	trend, err := h.agg.DailyTrend(c.Request.Context(), userID, days)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"days": trend})
}
