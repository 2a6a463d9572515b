package exporter

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/models"
)

// csvHeader: một file CSV chung cho cả ba loại thẻ.
// basic:           front=question, back=answer
// cloze:           front=text,     back=cloze_items nối "|"
// multiple_choice: front=question, options nối "|", correct_index
var csvHeader = []string{"card_type", "front", "back", "options", "correct_index", "tags"}

// ToCSV ghi các thẻ thành file CSV
func (e *Exporter) ToCSV(deckName string, cards []models.Flashcard) (string, error) {
	decoded, err := decodeCards(cards)
	if err != nil {
		return "", err
	}

	outPath := e.filePath(deckName, "csv")
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, card := range decoded {
		if err := w.Write(csvRow(card)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	e.logger.Info("đã ghi file CSV",
		zap.String("file", outPath), zap.Int("cards", len(decoded)))
	return outPath, nil
}

func csvRow(card decodedCard) []string {
	const tags = "anki_genix"
	switch card.CardType {
	case models.CardTypeBasic:
		return []string{card.CardType, card.Basic.Question, card.Basic.Answer, "", "", tags}
	case models.CardTypeCloze:
		return []string{card.CardType, card.Cloze.Text, strings.Join(card.Cloze.ClozeItems, "|"), "", "", tags}
	case models.CardTypeMultipleChoice:
		return []string{
			card.CardType,
			card.Choice.Question,
			"",
			strings.Join(card.Choice.Options, "|"),
			strconv.Itoa(card.Choice.CorrectIndex),
			tags,
		}
	}
	return nil
}
