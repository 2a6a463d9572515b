package store

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evepupil/anki-genix-backend/models"
)

// ErrNotFound trả về khi bản ghi không tồn tại
var ErrNotFound = errors.New("không tìm thấy bản ghi")

// TaskStore thao tác bảng task_info
type TaskStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewTaskStore(db *gorm.DB, logger *zap.Logger) *TaskStore {
	return &TaskStore{db: db, logger: logger.Named("store.task")}
}

func (s *TaskStore) Create(task *models.TaskInfo) error {
	if err := s.db.Create(task).Error; err != nil {
		s.logger.Error("tạo task thất bại", zap.String("task_id", task.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *TaskStore) GetByID(taskID uuid.UUID) (*models.TaskInfo, error) {
	var task models.TaskInfo
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("truy vấn task thất bại", zap.String("task_id", taskID.String()), zap.Error(err))
		return nil, err
	}
	return &task, nil
}

// UpdateStatus ghi trạng thái mới, một lần write vô điều kiện theo task id.
// Không đọc lại kiểm tra — thứ tự gọi do workflow đảm bảo.
func (s *TaskStore) UpdateStatus(taskID uuid.UUID, status string) error {
	if err := s.db.Model(&models.TaskInfo{}).Where("id = ?", taskID).
		Update("status", status).Error; err != nil {
		s.logger.Error("cập nhật trạng thái task thất bại",
			zap.String("task_id", taskID.String()),
			zap.String("status", status),
			zap.Error(err))
		return err
	}
	s.logger.Info("đã cập nhật trạng thái task",
		zap.String("task_id", taskID.String()),
		zap.String("status", status))
	return nil
}

// UpdateInputDataField cập nhật một field trong input_data của task
// (dùng cache media ref sau khi upload file lên AI)
func (s *TaskStore) UpdateInputDataField(taskID uuid.UUID, field string, value interface{}) error {
	task, err := s.GetByID(taskID)
	if err != nil {
		return err
	}
	if task.InputData == nil {
		task.InputData = map[string]interface{}{}
	}
	task.InputData[field] = value

	if err := s.db.Model(&models.TaskInfo{}).Where("id = ?", taskID).
		Update("input_data", task.InputData).Error; err != nil {
		s.logger.Error("cập nhật input_data thất bại",
			zap.String("task_id", taskID.String()),
			zap.String("field", field),
			zap.Error(err))
		return err
	}
	return nil
}
