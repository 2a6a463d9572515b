package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evepupil/anki-genix-backend/models"
)

// FlashcardStore thao tác bảng flashcard_result và flashcard
type FlashcardStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewFlashcardStore(db *gorm.DB, logger *zap.Logger) *FlashcardStore {
	return &FlashcardStore{db: db, logger: logger.Named("store.flashcard")}
}

func (s *FlashcardStore) CreateResult(result *models.FlashcardResult) error {
	if err := s.db.Create(result).Error; err != nil {
		s.logger.Error("tạo flashcard result thất bại",
			zap.String("task_id", result.TaskID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *FlashcardStore) GetResultByID(resultID uuid.UUID) (*models.FlashcardResult, error) {
	var result models.FlashcardResult
	if err := s.db.First(&result, "id = ?", resultID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetResultByTaskID lấy result mới nhất của task (task chạy lại tạo result mới)
func (s *FlashcardStore) GetResultByTaskID(taskID uuid.UUID) (*models.FlashcardResult, error) {
	var result models.FlashcardResult
	if err := s.db.Where("task_id = ?", taskID).
		Order("created_at DESC").First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListResultsByUser liệt kê result của user, mới nhất trước.
// sourceType rỗng = không lọc; limit <= 0 = không giới hạn.
func (s *FlashcardStore) ListResultsByUser(userID uuid.UUID, sourceType string, limit int) ([]models.FlashcardResult, error) {
	query := s.db.Where("user_id = ?", userID)
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.FlashcardResult
	if err := query.Find(&results).Error; err != nil {
		s.logger.Error("truy vấn danh sách result thất bại",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}
	return results, nil
}

func (s *FlashcardStore) UpdateTotalCount(resultID uuid.UUID, totalCount int) error {
	return s.db.Model(&models.FlashcardResult{}).Where("id = ?", resultID).
		Update("total_count", totalCount).Error
}

// UpdateExportInfo ghi bookkeeping sau khi export thành công
func (s *FlashcardStore) UpdateExportInfo(resultID uuid.UUID, exportFormat, resourceURL string) error {
	now := time.Now().UTC()
	return s.db.Model(&models.FlashcardResult{}).Where("id = ?", resultID).
		Updates(map[string]interface{}{
			"is_exported":   true,
			"export_format": exportFormat,
			"resource_url":  resourceURL,
			"exported_at":   now,
		}).Error
}

// BatchCreateCards chèn một loạt thẻ trong một insert
func (s *FlashcardStore) BatchCreateCards(cards []models.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	if err := s.db.Create(&cards).Error; err != nil {
		s.logger.Error("batch insert flashcard thất bại",
			zap.Int("count", len(cards)), zap.Error(err))
		return err
	}
	s.logger.Info("đã tạo flashcard", zap.Int("count", len(cards)))
	return nil
}

// ListCardsByResult lấy các thẻ chưa xóa của một result, theo order_index
func (s *FlashcardStore) ListCardsByResult(resultID uuid.UUID) ([]models.Flashcard, error) {
	var cards []models.Flashcard
	if err := s.db.
		Where("result_id = ? AND is_deleted = ?", resultID, false).
		Order("order_index ASC").
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListCardsByTask lấy thẻ theo task: tìm result của task rồi lấy thẻ của result
func (s *FlashcardStore) ListCardsByTask(taskID uuid.UUID) ([]models.Flashcard, *models.FlashcardResult, error) {
	result, err := s.GetResultByTaskID(taskID)
	if err != nil {
		return nil, nil, err
	}
	cards, err := s.ListCardsByResult(result.ID)
	if err != nil {
		return nil, nil, err
	}
	return cards, result, nil
}

// CountResultsBySourceType đếm result của user theo từng source type
func (s *FlashcardStore) CountResultsBySourceType(userID uuid.UUID) (map[string]int64, error) {
	counts := map[string]int64{
		models.SourceTypeText: 0,
		models.SourceTypeFile: 0,
		models.SourceTypeWeb:  0,
	}
	rows := []struct {
		SourceType string
		Total      int64
	}{}
	if err := s.db.Model(&models.FlashcardResult{}).
		Select("source_type, count(*) as total").
		Where("user_id = ?", userID).
		Group("source_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := counts[row.SourceType]; ok {
			counts[row.SourceType] = row.Total
		}
	}
	return counts, nil
}
