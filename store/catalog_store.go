package store

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evepupil/anki-genix-backend/models"
)

// CatalogStore thao tác bảng catalog_info
type CatalogStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCatalogStore(db *gorm.DB, logger *zap.Logger) *CatalogStore {
	return &CatalogStore{db: db, logger: logger.Named("store.catalog")}
}

func (s *CatalogStore) Create(catalog *models.CatalogInfo) error {
	if err := s.db.Create(catalog).Error; err != nil {
		s.logger.Error("tạo catalog thất bại",
			zap.String("task_id", catalog.TaskID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("đã tạo catalog",
		zap.String("task_id", catalog.TaskID.String()),
		zap.String("catalog_id", catalog.ID.String()))
	return nil
}

func (s *CatalogStore) GetByTaskID(taskID uuid.UUID) (*models.CatalogInfo, error) {
	var catalog models.CatalogInfo
	if err := s.db.First(&catalog, "task_id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("truy vấn catalog thất bại", zap.String("task_id", taskID.String()), zap.Error(err))
		return nil, err
	}
	return &catalog, nil
}

// UpdateSelected thay thế toàn bộ danh sách node đã chọn của catalog
func (s *CatalogStore) UpdateSelected(taskID uuid.UUID, selected []byte) error {
	if err := s.db.Model(&models.CatalogInfo{}).Where("task_id = ?", taskID).
		Update("selected", selected).Error; err != nil {
		s.logger.Error("cập nhật selected thất bại", zap.String("task_id", taskID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *CatalogStore) DeleteByTaskID(taskID uuid.UUID) (int64, error) {
	res := s.db.Where("task_id = ?", taskID).Delete(&models.CatalogInfo{})
	if res.Error != nil {
		s.logger.Error("xóa catalog thất bại", zap.String("task_id", taskID.String()), zap.Error(res.Error))
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
