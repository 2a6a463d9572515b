package controllers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/exporter"
	"github.com/evepupil/anki-genix-backend/middleware"
	"github.com/evepupil/anki-genix-backend/models"
	"github.com/evepupil/anki-genix-backend/store"
	"github.com/evepupil/anki-genix-backend/utils"
)

type ExportController struct {
	cards    *store.FlashcardStore
	exporter *exporter.Exporter
	logger   *zap.Logger
}

func NewExportController(cards *store.FlashcardStore, exp *exporter.Exporter, logger *zap.Logger) *ExportController {
	return &ExportController{
		cards:    cards,
		exporter: exp,
		logger:   logger.Named("export_controller"),
	}
}

type exportRequest struct {
	ResultID string `json:"result_id" binding:"required"`
	Format   string `json:"format" binding:"required"`
	DeckName string `json:"deck_name"`
}

func validExportFormat(format string) bool {
	switch format {
	case models.ExportFormatApkg, models.ExportFormatCSV, models.ExportFormatXLSX:
		return true
	}
	return false
}

// Export xử lý POST /api/export - đóng gói thẻ của một result thành
// apkg/csv/xlsx, upload lên Supabase và ghi lại resource_url
func (ec *ExportController) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	resultID, err := uuid.Parse(req.ResultID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result_id không hợp lệ"})
		return
	}
	if !validExportFormat(req.Format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format không hợp lệ: " + req.Format})
		return
	}

	result, err := ec.cards.GetResultByID(resultID)
	if err != nil {
		respondError(c, err)
		return
	}
	cards, err := ec.cards.ListCardsByResult(resultID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(cards) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result không có thẻ nào để export"})
		return
	}

	deckName := req.DeckName
	if deckName == "" {
		deckName = "AnkiGenix_" + result.ID.String()[:8]
	}

	var localPath string
	switch req.Format {
	case models.ExportFormatApkg:
		localPath, err = ec.exporter.ToDeckPackage(deckName, cards)
	case models.ExportFormatCSV:
		localPath, err = ec.exporter.ToCSV(deckName, cards)
	case models.ExportFormatXLSX:
		localPath, err = ec.exporter.ToXLSX(deckName, cards)
	}
	if err != nil {
		ec.logger.Error("export thất bại",
			zap.String("result_id", resultID.String()),
			zap.String("format", req.Format),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export thất bại: " + err.Error()})
		return
	}
	defer os.Remove(localPath)

	resourceURL, err := utils.UploadExportToSupabase(localPath)
	if err != nil {
		ec.logger.Error("upload file export thất bại", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload file export thất bại: " + err.Error()})
		return
	}

	if err := ec.cards.UpdateExportInfo(resultID, req.Format, resourceURL); err != nil {
		ec.logger.Error("ghi thông tin export thất bại",
			zap.String("result_id", resultID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Export thành công",
		"resource_url": resourceURL,
		"format":       req.Format,
		"deck_name":    deckName,
		"total":        len(cards),
	})
}

// ListResults xử lý GET /api/results - liệt kê result của người dùng,
// lọc được theo source_type, kèm thống kê theo nguồn
func (ec *ExportController) ListResults(c *gin.Context) {
	userID := middleware.UserIDFrom(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thiếu header X-User-ID"})
		return
	}

	sourceType := c.Query("source_type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := ec.cards.ListResultsByUser(userID, sourceType, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := ec.cards.CountResultsBySourceType(userID)
	if err != nil {
		ec.logger.Warn("thống kê result theo nguồn thất bại", zap.Error(err))
		stats = map[string]int64{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  results,
		"count": len(results),
		"stats": stats,
	})
}
