package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Trạng thái task trong pipeline sinh thẻ
const (
	TaskStatusCreated           = "created"
	TaskStatusFileUploading     = "file_uploading"
	TaskStatusAIProcessing      = "ai_processing"
	TaskStatusGeneratingCatalog = "generating_catalog"
	TaskStatusGeneratingCards   = "generating_cards"
	TaskStatusCatalogReady      = "catalog_ready"
	TaskStatusCompleted         = "completed"
	TaskStatusFailed            = "failed"
)

const (
	TaskTypeText  = "text"
	TaskTypeFile  = "file"
	TaskTypeWeb   = "web"
	TaskTypeTopic = "topic"
)

const (
	WorkflowExtractCatalog = "extract_catalog"
	WorkflowDirectGenerate = "direct_generate"
)

type TaskInfo struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	TaskType     string            `gorm:"size:20;not null" json:"task_type"`      // text|file|web|topic
	WorkflowType string            `gorm:"size:30;not null" json:"workflow_type"`  // extract_catalog|direct_generate
	Status       string            `gorm:"size:30;default:'created'" json:"status"`
	InputData    datatypes.JSONMap `gorm:"type:jsonb" json:"input_data"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TaskInfo) TableName() string {
	return "task_info"
}

// IsTerminal báo task đã kết thúc (completed/failed), không được mutate nữa
func (t *TaskInfo) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
