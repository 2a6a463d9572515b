package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/models"
)

const (
	sheetBasic  = "Basic"
	sheetCloze  = "Cloze"
	sheetChoice = "MultipleChoice"
)

// ToXLSX ghi các thẻ thành bảng tính Excel, mỗi loại thẻ một sheet
func (e *Exporter) ToXLSX(deckName string, cards []models.Flashcard) (string, error) {
	decoded, err := decodeCards(cards)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, sheetBasic, []string{"question", "answer"}); err != nil {
		return "", err
	}
	if err := writeSheet(f, sheetCloze, []string{"text", "cloze_items"}); err != nil {
		return "", err
	}
	if err := writeSheet(f, sheetChoice, []string{"question", "options", "correct_index"}); err != nil {
		return "", err
	}
	// bỏ sheet mặc định do excelize tạo sẵn
	f.DeleteSheet("Sheet1")

	rowBySheet := map[string]int{sheetBasic: 1, sheetCloze: 1, sheetChoice: 1}
	for _, card := range decoded {
		var sheet string
		var values []interface{}
		switch card.CardType {
		case models.CardTypeBasic:
			sheet = sheetBasic
			values = []interface{}{card.Basic.Question, card.Basic.Answer}
		case models.CardTypeCloze:
			sheet = sheetCloze
			values = []interface{}{card.Cloze.Text, strings.Join(card.Cloze.ClozeItems, "|")}
		case models.CardTypeMultipleChoice:
			sheet = sheetChoice
			values = []interface{}{card.Choice.Question, strings.Join(card.Choice.Options, "|"), card.Choice.CorrectIndex}
		}
		rowBySheet[sheet]++
		cell, err := excelize.CoordinatesToCellName(1, rowBySheet[sheet])
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", err
		}
	}

	outPath := e.filePath(deckName, "xlsx")
	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("ghi file xlsx thất bại: %w", err)
	}
	e.logger.Info("đã ghi file XLSX",
		zap.String("file", outPath), zap.Int("cards", len(decoded)))
	return outPath, nil
}

func writeSheet(f *excelize.File, name string, header []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	return f.SetSheetRow(name, "A1", &values)
}
