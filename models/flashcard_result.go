package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceTypeText = "text"
	SourceTypeFile = "file"
	SourceTypeWeb  = "web"
)

const (
	ExportFormatApkg = "apkg"
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// FlashcardResult là bản ghi tổng hợp của một lần sinh thẻ.
// TotalCount = số thẻ chưa xóa thuộc result này (caller tự duy trì).
type FlashcardResult struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceType   string     `gorm:"size:10;not null" json:"source_type"` // text|file|web
	CatalogID    *uuid.UUID `gorm:"type:uuid" json:"catalog_id,omitempty"`
	TotalCount   int        `gorm:"default:0" json:"total_count"`
	IsExported   bool       `gorm:"default:false" json:"is_exported"`
	ExportFormat *string    `gorm:"size:10" json:"export_format,omitempty"` // apkg|csv|xlsx
	ResourceURL  *string    `gorm:"type:text" json:"resource_url,omitempty"`
	ExportedAt   *time.Time `json:"exported_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FlashcardResult) TableName() string {
	return "flashcard_result"
}
