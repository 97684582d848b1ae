package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/srs"
)

type ReviewHandler struct {
	svc *srs.Scheduler
	log *logger.Logger
}

func NewReviewHandler(svc *srs.Scheduler, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, log: log.With("handler", "review")}
}

// GET /api/users/:id/reviews/due
func (h *ReviewHandler) ListDueReviews(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	due, err := h.svc.DueItems(c.Request.Context(), userID, asOf)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"due": due, "count": len(due)})
}
