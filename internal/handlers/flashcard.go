package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/excel"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/practice"
	"github.com/example/provalab/pkg/models"
)

type FlashcardHandler struct {
	svc        *practice.Service
	flashcards *database.FlashcardRepository
	importer   *excel.Importer
	log        *logger.Logger
}

func NewFlashcardHandler(svc *practice.Service, flashcards *database.FlashcardRepository, importer *excel.Importer, log *logger.Logger) *FlashcardHandler {
	return &FlashcardHandler{
		svc:        svc,
		flashcards: flashcards,
		importer:   importer,
		log:        log.With("handler", "flashcard"),
	}
}

// GET /api/users/:id/flashcards
func (h *FlashcardHandler) ListFlashcards(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	cards, err := h.flashcards.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"flashcards": cards})
}

type createFlashcardRequest struct {
	Front string `json:"front" binding:"required"`
	Back  string `json:"back" binding:"required"`
}

// POST /api/users/:id/flashcards
func (h *FlashcardHandler) CreateFlashcard(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req createFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	card := &models.Flashcard{
		UserID: userID,
		Front:  req.Front,
		Back:   req.Back,
	}
	if err := h.flashcards.Create(c.Request.Context(), card); err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, card)
}

type reviewFlashcardRequest struct {
	Remembered bool `json:"remembered"`
}

// POST /api/users/:id/flashcards/:cardID/review
func (h *FlashcardHandler) ReviewFlashcard(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	cardID, err := strconv.ParseInt(c.Param("cardID"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req reviewFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	card, err := h.svc.AdvanceFlashcard(c.Request.Context(), userID, cardID, req.Remembered, time.Now().UTC())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, card)
}

// POST /api/users/:id/flashcards/generate
func (h *FlashcardHandler) GenerateFlashcards(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	cards, err := h.svc.GenerateFlashcards(c.Request.Context(), userID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"generated": len(cards), "flashcards": cards})
}

// POST /api/users/:id/flashcards/import
//
// Accepts a multipart upload under the "file" field. Excel files use
// the optional "sheet", "front_column" and "back_column" form values.
func (h *FlashcardHandler) ImportFlashcards(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "flashcard-import")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}

	config := excel.DefaultImportConfig()
	config.FilePath = path
	if sheet := c.PostForm("sheet"); sheet != "" {
		config.SheetName = sheet
	}
	if col := c.PostForm("front_column"); col != "" {
		config.FrontColumn = col
	}
	if col := c.PostForm("back_column"); col != "" {
		config.BackColumn = col
	}

	result, err := h.importer.ImportFlashcards(c.Request.Context(), userID, config)
	if err != nil {
		h.log.Error("flashcard import failed", "user_id", userID, "file", file.Filename, "error", err)
		RespondAppError(c, err)
		return
	}

	RespondOK(c, result)
}
