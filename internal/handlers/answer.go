package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/practice"
)

type AnswerHandler struct {
	svc *practice.Service
	log *logger.Logger
}

func NewAnswerHandler(svc *practice.Service, log *logger.Logger) *AnswerHandler {
	return &AnswerHandler{svc: svc, log: log.With("handler", "answer")}
}

// POST /api/answers
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	var input practice.AnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.svc.RecordAnswer(c.Request.Context(), input)
	if err != nil {
		h.log.Warn("answer rejected", "user_id", input.UserID, "item_id", input.ItemID, "error", err)
		RespondAppError(c, err)
		return
	}

	RespondOK(c, result)
}
