package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/evepupil/anki-genix-backend/middleware"
	"github.com/evepupil/anki-genix-backend/models"
	"github.com/evepupil/anki-genix-backend/services"
	"github.com/evepupil/anki-genix-backend/store"
	"github.com/evepupil/anki-genix-backend/utils"
)

type TaskController struct {
	tasks  *store.TaskStore
	logger *zap.Logger
}

func NewTaskController(tasks *store.TaskStore, logger *zap.Logger) *TaskController {
	return &TaskController{tasks: tasks, logger: logger.Named("task_controller")}
}

type createTaskRequest struct {
	TaskType     string                 `json:"task_type" binding:"required"`
	WorkflowType string                 `json:"workflow_type" binding:"required"`
	InputData    map[string]interface{} `json:"input_data"`
}

func validTaskType(t string) bool {
	switch t {
	case models.TaskTypeText, models.TaskTypeFile, models.TaskTypeWeb, models.TaskTypeTopic:
		return true
	}
	return false
}

func validWorkflowType(w string) bool {
	return w == models.WorkflowExtractCatalog || w == models.WorkflowDirectGenerate
}

// Create xử lý POST /api/tasks - tạo task mới ở trạng thái created
func (tc *TaskController) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body không hợp lệ: " + err.Error()})
		return
	}
	if !validTaskType(req.TaskType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_type không hợp lệ: " + req.TaskType})
		return
	}
	if !validWorkflowType(req.WorkflowType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workflow_type không hợp lệ: " + req.WorkflowType})
		return
	}

	task := &models.TaskInfo{
		ID:           uuid.New(),
		UserID:       middleware.UserIDFrom(c),
		TaskType:     req.TaskType,
		WorkflowType: req.WorkflowType,
		Status:       models.TaskStatusCreated,
		InputData:    datatypes.JSONMap(req.InputData),
	}
	if task.InputData == nil {
		task.InputData = datatypes.JSONMap{}
	}
	if err := tc.tasks.Create(task); err != nil {
		tc.logger.Error("tạo task thất bại", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tạo task thất bại"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo task thành công",
		"data":    task,
	})
}

// CreateFromFile xử lý POST /api/tasks/file - tạo task từ file upload.
// extract_text=true: trích text ngay và tạo task dạng text;
// ngược lại giữ file trên đĩa để upload lên AI, tạo task dạng file.
func (tc *TaskController) CreateFromFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thiếu file upload"})
		return
	}
	workflowType := c.PostForm("workflow_type")
	if !validWorkflowType(workflowType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workflow_type không hợp lệ: " + workflowType})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	inputType, err := utils.GetInputTypeFromExt(ext)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID := uuid.New()
	task := &models.TaskInfo{
		ID:           taskID,
		UserID:       middleware.UserIDFrom(c),
		WorkflowType: workflowType,
		Status:       models.TaskStatusCreated,
	}

	if c.PostForm("extract_text") == "true" {
		text, err := services.ExtractText(fileHeader, inputType)
		if err != nil {
			tc.logger.Error("trích xuất text thất bại",
				zap.String("filename", fileHeader.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "trích xuất text thất bại"})
			return
		}
		if strings.TrimSpace(text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file không có nội dung text"})
			return
		}
		task.TaskType = models.TaskTypeText
		task.InputData = datatypes.JSONMap{"text": text, "filename": fileHeader.Filename}
	} else {
		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "uploads"
		}
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "không tạo được thư mục upload"})
			return
		}
		filePath := filepath.Join(uploadDir, taskID.String()+ext)
		if err := c.SaveUploadedFile(fileHeader, filePath); err != nil {
			tc.logger.Error("lưu file upload thất bại", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lưu file upload thất bại"})
			return
		}
		task.TaskType = models.TaskTypeFile
		task.InputData = datatypes.JSONMap{"file_path": filePath, "filename": fileHeader.Filename}
	}

	if err := tc.tasks.Create(task); err != nil {
		tc.logger.Error("tạo task thất bại", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tạo task thất bại"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo task thành công",
		"data":    task,
	})
}

// Get xử lý GET /api/tasks/:id - client polling trạng thái task
func (tc *TaskController) Get(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task ID không hợp lệ"})
		return
	}

	task, err := tc.tasks.GetByID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy task"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}
