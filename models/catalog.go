package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CatalogInfo lưu mục lục (outline) sinh ra cho một task, 1:1 với task_info.
// CatalogData là rừng node chương/mục/tiểu mục đã gán id dạng "1", "1.2", "1.2.3".
// Selected là danh sách id node người dùng đã chọn để sinh thẻ.
type CatalogInfo struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	CatalogData datatypes.JSON `gorm:"type:jsonb;not null" json:"catalog_data"`
	Selected    datatypes.JSON `gorm:"type:jsonb" json:"selected"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CatalogInfo) TableName() string {
	return "catalog_info"
}
