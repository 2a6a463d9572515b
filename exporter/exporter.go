// Package exporter chuyển danh sách flashcard thành file deck tải về được:
// gói Anki .apkg, CSV hoặc bảng tính XLSX.
package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/models"
)

// Exporter ghi file export vào outputDir
type Exporter struct {
	outputDir string
	logger    *zap.Logger
}

func NewExporter(outputDir string, logger *zap.Logger) (*Exporter, error) {
	if outputDir == "" {
		outputDir = "exports"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("không tạo được thư mục export %s: %w", outputDir, err)
	}
	return &Exporter{outputDir: outputDir, logger: logger.Named("exporter")}, nil
}

func (e *Exporter) filePath(deckName, ext string) string {
	name := fmt.Sprintf("%s_%d.%s", slug.Make(deckName), time.Now().Unix(), ext)
	return filepath.Join(e.outputDir, name)
}

// decodedCard là một thẻ đã giải mã card_data theo card_type
type decodedCard struct {
	CardType string
	Basic    models.BasicCardData
	Cloze    models.ClozeCardData
	Choice   models.ChoiceCardData
}

func decodeCards(cards []models.Flashcard) ([]decodedCard, error) {
	decoded := make([]decodedCard, 0, len(cards))
	for _, card := range cards {
		d := decodedCard{CardType: card.CardType}
		var err error
		switch card.CardType {
		case models.CardTypeBasic:
			err = json.Unmarshal(card.CardData, &d.Basic)
		case models.CardTypeCloze:
			err = json.Unmarshal(card.CardData, &d.Cloze)
		case models.CardTypeMultipleChoice:
			err = json.Unmarshal(card.CardData, &d.Choice)
		default:
			err = fmt.Errorf("card_type không hỗ trợ: %s", card.CardType)
		}
		if err != nil {
			return nil, fmt.Errorf("giải mã card_data thẻ %s thất bại: %w", card.ID, err)
		}
		decoded = append(decoded, d)
	}
	return decoded, nil
}

// optionLabel đánh nhãn lựa chọn trắc nghiệm: A, B, C...
func optionLabel(i int) string {
	return string(rune('A' + i))
}
