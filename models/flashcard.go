package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CardTypeBasic          = "basic"
	CardTypeCloze          = "cloze"
	CardTypeMultipleChoice = "multiple_choice"
)

// ValidCardType kiểm tra card_type có thuộc 3 loại được hỗ trợ không
func ValidCardType(cardType string) bool {
	switch cardType {
	case CardTypeBasic, CardTypeCloze, CardTypeMultipleChoice:
		return true
	}
	return false
}

// Flashcard là một thẻ đơn. CardData là payload JSONB, shape phụ thuộc CardType:
//   - basic:           {"question", "answer"}
//   - cloze:           {"text", "cloze_items"}
//   - multiple_choice: {"question", "options", "correct_index"}
type Flashcard struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ResultID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"result_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	CardType   string         `gorm:"size:20;not null" json:"card_type"`
	CardData   datatypes.JSON `gorm:"type:jsonb;not null" json:"card_data"`
	OrderIndex int            `gorm:"not null" json:"order_index"`
	CatalogID  *uuid.UUID     `gorm:"type:uuid" json:"catalog_id,omitempty"`
	SectionID  *string        `gorm:"size:30" json:"section_id,omitempty"` // địa chỉ node catalog, vd "1.2.3"
	IsDeleted  bool           `gorm:"default:false;index" json:"is_deleted"`
	Tags       datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	Notes      *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Flashcard) TableName() string {
	return "flashcard"
}

// BasicCardData payload cho thẻ hỏi đáp
type BasicCardData struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClozeCardData payload cho thẻ điền khuyết, Text dùng cú pháp {{c1::...}}
type ClozeCardData struct {
	Text       string   `json:"text"`
	ClozeItems []string `json:"cloze_items,omitempty"`
}

// ChoiceCardData payload cho thẻ trắc nghiệm
type ChoiceCardData struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}
