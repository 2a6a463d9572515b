package controllers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/services"
	"github.com/evepupil/anki-genix-backend/store"
)

type CatalogController struct {
	workflow *services.TaskWorkflow
	catalogs *store.CatalogStore
	logger   *zap.Logger
}

func NewCatalogController(workflow *services.TaskWorkflow, catalogs *store.CatalogStore, logger *zap.Logger) *CatalogController {
	return &CatalogController{
		workflow: workflow,
		catalogs: catalogs,
		logger:   logger.Named("catalog_controller"),
	}
}

type topicCatalogRequest struct {
	Topic string `json:"topic" binding:"required"`
	Lang  string `json:"lang"`
}

// AnalyzeTopic xử lý POST /api/catalog/topic - sinh mục lục từ tên chủ đề,
// không gắn với task nào
func (cc *CatalogController) AnalyzeTopic(c *gin.Context) {
	var req topicCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}

	nodes, err := cc.workflow.AnalyzeCatalogFromTopic(c.Request.Context(), req.Topic, req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  nodes,
		"count": len(nodes),
	})
}

type textCatalogRequest struct {
	TaskID string `json:"task_id" binding:"required"`
	Lang   string `json:"lang"`
}

// ExtractFromText xử lý POST /api/catalog/text - lượt đầu workflow
// extract_catalog với input là text đã lưu trong task
func (cc *CatalogController) ExtractFromText(c *gin.Context) {
	var req textCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return
	}

	catalog, err := cc.workflow.ExtractCatalogFromText(c.Request.Context(), taskID, req.Lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đã sinh mục lục, chờ chọn mục",
		"data":    catalog,
	})
}

// ExtractFromFile xử lý POST /api/catalog/file - multipart gồm task_id và file.
// File được upload lên AI, ref cache theo task nên gửi lại không cần đính file.
func (cc *CatalogController) ExtractFromFile(c *gin.Context) {
	taskID, err := uuid.Parse(c.PostForm("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return
	}
	lang := c.PostForm("lang")

	filePath := ""
	if fileHeader, ferr := c.FormFile("file"); ferr == nil {
		filePath, err = services.SaveTempFile(fileHeader)
		if err != nil {
			cc.logger.Error("lưu file tạm thất bại", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lưu file tạm thất bại"})
			return
		}
		defer os.Remove(filePath)
	}

	catalog, err := cc.workflow.ExtractCatalogFromFile(c.Request.Context(), taskID, filePath, lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đã sinh mục lục, chờ chọn mục",
		"data":    catalog,
	})
}

type selectSectionsRequest struct {
	TaskID   string   `json:"task_id" binding:"required"`
	Selected []string `json:"selected"`
}

// SelectSections xử lý POST /api/catalog/select - thay toàn bộ danh sách mục đã chọn
func (cc *CatalogController) SelectSections(c *gin.Context) {
	var req selectSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id không hợp lệ"})
		return
	}

	if err := cc.workflow.SelectCatalogSections(taskID, req.Selected); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đã cập nhật mục chọn",
		"count":   len(req.Selected),
	})
}

// Get xử lý GET /api/catalog/:taskId - xem lại mục lục đã sinh cho task
func (cc *CatalogController) Get(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task ID không hợp lệ"})
		return
	}

	catalog, err := cc.catalogs.GetByTaskID(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": catalog})
}
