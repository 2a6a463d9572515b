package controllers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/models"
	"github.com/evepupil/anki-genix-backend/services"
	"github.com/evepupil/anki-genix-backend/store"
)

const (
	defaultCardNumber = 10
	maxCardNumber     = 50
)

type FlashcardController struct {
	workflow *services.TaskWorkflow
	cards    *store.FlashcardStore
	logger   *zap.Logger
}

func NewFlashcardController(workflow *services.TaskWorkflow, cards *store.FlashcardStore, logger *zap.Logger) *FlashcardController {
	return &FlashcardController{
		workflow: workflow,
		cards:    cards,
		logger:   logger.Named("flashcard_controller"),
	}
}

func normalizeCardNumber(n int) int {
	if n <= 0 {
		return defaultCardNumber
	}
	if n > maxCardNumber {
		return maxCardNumber
	}
	return n
}

type topicCardsRequest struct {
	Topic    string `json:"topic" binding:"required"`
	CardType string `json:"card_type" binding:"required"`
	Number   int    `json:"number"`
	Lang     string `json:"lang"`
}

// GenerateFromTopic xử lý POST /api/flashcards/generate/topic - sinh thẻ từ
// tên chủ đề, không lưu DB
func (fc *FlashcardController) GenerateFromTopic(c *gin.Context) {
	var req topicCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	if !models.ValidCardType(req.CardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type không hợp lệ: " + req.CardType})
		return
	}

	payloads, err := fc.workflow.GenerateCardsFromTopic(c.Request.Context(), req.CardType, req.Topic, normalizeCardNumber(req.Number), req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  payloads,
		"count": len(payloads),
	})
}

type textCardsRequest struct {
	TaskID   string `json:"task_id" binding:"required"`
	CardType string `json:"card_type" binding:"required"`
	Number   int    `json:"number"`
	Lang     string `json:"lang"`
}

// GenerateFromText xử lý POST /api/flashcards/generate/text (direct_generate)
func (fc *FlashcardController) GenerateFromText(c *gin.Context) {
	var req textCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return
	}
	if !models.ValidCardType(req.CardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type không hợp lệ: " + req.CardType})
		return
	}

	result, err := fc.workflow.GenerateCardsFromText(c.Request.Context(), taskID, req.CardType, normalizeCardNumber(req.Number), req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sinh thẻ thành công",
		"data":    result,
	})
}

// GenerateFromFile xử lý POST /api/flashcards/generate/file - multipart gồm
// task_id, card_type, number, lang và file (bỏ qua được nếu task đã có media ref)
func (fc *FlashcardController) GenerateFromFile(c *gin.Context) {
	taskID, cardType, number, lang, ok := fc.bindFileForm(c)
	if !ok {
		return
	}

	filePath, ok := fc.saveUpload(c)
	if !ok {
		return
	}
	if filePath != "" {
		defer os.Remove(filePath)
	}

	result, err := fc.workflow.GenerateCardsFromFile(c.Request.Context(), taskID, filePath, cardType, number, lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sinh thẻ thành công",
		"data":    result,
	})
}

type urlCardsRequest struct {
	TaskID   string `json:"task_id"`
	URL      string `json:"url"`
	CardType string `json:"card_type" binding:"required"`
	Number   int    `json:"number"`
	Lang     string `json:"lang"`
}

// GenerateFromURL xử lý POST /api/flashcards/generate/url.
// Không có task_id thì chạy stateless: crawl, sinh thẻ, trả về luôn, không lưu.
func (fc *FlashcardController) GenerateFromURL(c *gin.Context) {
	var req urlCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	if !models.ValidCardType(req.CardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type không hợp lệ: " + req.CardType})
		return
	}

	taskID := uuid.Nil
	if req.TaskID != "" {
		var err error
		taskID, err = uuid.Parse(req.TaskID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
			return
		}
	}

	result, payloads, err := fc.workflow.GenerateCardsFromURL(c.Request.Context(), taskID, req.URL, req.CardType, normalizeCardNumber(req.Number), req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	if result != nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Sinh thẻ thành công",
			"data":    result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  payloads,
		"count": len(payloads),
	})
}

// GenerateTextSections xử lý POST /api/flashcards/generate/text/section -
// lượt hai của extract_catalog: sinh thẻ cho các mục đã chọn từ text
func (fc *FlashcardController) GenerateTextSections(c *gin.Context) {
	var req textCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return
	}
	if !models.ValidCardType(req.CardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type không hợp lệ: " + req.CardType})
		return
	}

	result, err := fc.workflow.GenerateCardsForSections(c.Request.Context(), taskID, services.FormText, "", req.CardType, normalizeCardNumber(req.Number), req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sinh thẻ theo mục thành công",
		"data":    result,
	})
}

// GenerateFileSections xử lý POST /api/flashcards/generate/file/section -
// như GenerateTextSections nhưng nguồn là file đã upload lên AI
func (fc *FlashcardController) GenerateFileSections(c *gin.Context) {
	taskID, cardType, number, lang, ok := fc.bindFileForm(c)
	if !ok {
		return
	}

	filePath, ok := fc.saveUpload(c)
	if !ok {
		return
	}
	if filePath != "" {
		defer os.Remove(filePath)
	}

	result, err := fc.workflow.GenerateCardsForSections(c.Request.Context(), taskID, services.FormFile, filePath, cardType, number, lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sinh thẻ theo mục thành công",
		"data":    result,
	})
}

// ListByResult xử lý GET /api/flashcards/:resultId - liệt kê thẻ của một result
func (fc *FlashcardController) ListByResult(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("resultId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result ID không hợp lệ"})
		return
	}

	cards, err := fc.cards.ListCardsByResult(resultID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  cards,
		"count": len(cards),
	})
}

// ListByTask xử lý GET /api/tasks/:id/cards - thẻ mới nhất sinh cho một task
func (fc *FlashcardController) ListByTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task ID không hợp lệ"})
		return
	}

	cards, result, err := fc.cards.ListCardsByTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   cards,
		"result": result,
		"count":  len(cards),
	})
}

func (fc *FlashcardController) bindFileForm(c *gin.Context) (taskID uuid.UUID, cardType string, number int, lang string, ok bool) {
	taskID, err := uuid.Parse(c.PostForm("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return uuid.Nil, "", 0, "", false
	}
	cardType = c.PostForm("card_type")
	if !models.ValidCardType(cardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_type không hợp lệ: " + cardType})
		return uuid.Nil, "", 0, "", false
	}
	number, _ = strconv.Atoi(c.PostForm("number"))
	return taskID, cardType, normalizeCardNumber(number), c.PostForm("lang"), true
}

func (fc *FlashcardController) saveUpload(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// không đính file vẫn hợp lệ khi task đã có media ref cache
		return "", true
	}
	filePath, err := services.SaveTempFile(fileHeader)
	if err != nil {
		fc.logger.Error("lưu file tạm thất bại", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lưu file tạm thất bại"})
		return "", false
	}
	return filePath, true
}
