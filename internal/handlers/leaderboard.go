package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/pkg/models"
)

type LeaderboardHandler struct {
	engine     *league.Engine
	windowSize int
	log        *logger.Logger
}

func NewLeaderboardHandler(engine *league.Engine, windowSize int, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		engine:     engine,
		windowSize: windowSize,
		log:        log.With("handler", "leaderboard"),
	}
}

// GET /api/users/:id/leaderboard
func (h *LeaderboardHandler) GetWindowedView(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	size := h.windowSize
	if raw := c.Query("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < 1 {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	entries, err := h.engine.WindowedView(c.Request.Context(), userID, size)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	membership, err := h.engine.EnsureMembership(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"tier": membership.Tier, "entries": entries})
}

// GET /api/leagues/:tier
func (h *LeaderboardHandler) GetTierStandings(c *gin.Context) {
	tier := models.Tier(c.Param("tier"))
	if !tier.Valid() {
		RespondAppError(c, apperr.Validationf("unknown tier %q", tier))
		return
	}

	entries, err := h.engine.Standings(c.Request.Context(), tier)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"tier": tier, "entries": entries})
}
