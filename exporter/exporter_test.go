package exporter

import (
	"archive/zip"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/evepupil/anki-genix-backend/models"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := NewExporter(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewExporter lỗi: %v", err)
	}
	return e
}

func mustCard(t *testing.T, cardType string, data interface{}) models.Flashcard {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal card_data lỗi: %v", err)
	}
	return models.Flashcard{
		ID:       uuid.New(),
		CardType: cardType,
		CardData: datatypes.JSON(payload),
	}
}

func mixedDeck(t *testing.T) []models.Flashcard {
	t.Helper()
	return []models.Flashcard{
		mustCard(t, models.CardTypeBasic, models.BasicCardData{
			Question: "Quang hợp là gì?",
			Answer:   "Quá trình cây xanh tổng hợp chất hữu cơ từ CO2 và nước.",
		}),
		mustCard(t, models.CardTypeCloze, models.ClozeCardData{
			Text:       "Quang hợp cần {{c1::ánh sáng}} và {{c2::diệp lục}}.",
			ClozeItems: []string{"ánh sáng", "diệp lục"},
		}),
		mustCard(t, models.CardTypeMultipleChoice, models.ChoiceCardData{
			Question:     "Sản phẩm của quang hợp là gì?",
			Options:      []string{"O2", "CO2", "N2"},
			CorrectIndex: 0,
		}),
	}
}

// ===== apkg =====

func extractCollection(t *testing.T, apkgPath string) string {
	t.Helper()
	r, err := zip.OpenReader(apkgPath)
	if err != nil {
		t.Fatalf("apkg không phải file zip: %v", err)
	}
	defer r.Close()

	names := map[string]bool{}
	dbPath := filepath.Join(t.TempDir(), "collection.anki2")
	for _, f := range r.File {
		names[f.Name] = true
		if f.Name != "collection.anki2" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("mở collection.anki2 lỗi: %v", err)
		}
		out, err := os.Create(dbPath)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			t.Fatal(err)
		}
		out.Close()
		rc.Close()
	}
	if !names["collection.anki2"] || !names["media"] {
		t.Fatalf("apkg thiếu entry bắt buộc, có: %v", names)
	}
	return dbPath
}

func TestToDeckPackageRoundTrip(t *testing.T) {
	e := newTestExporter(t)
	cards := mixedDeck(t)

	apkgPath, err := e.ToDeckPackage("Sinh học 11", cards)
	if err != nil {
		t.Fatalf("ToDeckPackage lỗi: %v", err)
	}
	if filepath.Ext(apkgPath) != ".apkg" {
		t.Errorf("file export phải có đuôi .apkg, got %s", apkgPath)
	}

	dbPath := extractCollection(t, apkgPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("mở sqlite lỗi: %v", err)
	}
	defer db.Close()

	var ver int
	if err := db.QueryRow(`SELECT ver FROM col`).Scan(&ver); err != nil {
		t.Fatalf("đọc col lỗi: %v", err)
	}
	if ver != 11 {
		t.Errorf("schema ver = %d, muốn 11", ver)
	}

	rows, err := db.Query(`SELECT flds, tags FROM notes ORDER BY id`)
	if err != nil {
		t.Fatalf("đọc notes lỗi: %v", err)
	}
	defer rows.Close()

	var notes [][]string
	for rows.Next() {
		var flds, tags string
		if err := rows.Scan(&flds, &tags); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(tags, "anki_genix") {
			t.Errorf("note thiếu tag anki_genix: %q", tags)
		}
		notes = append(notes, strings.Split(flds, "\x1f"))
	}
	if len(notes) != 3 {
		t.Fatalf("muốn 3 note, got %d", len(notes))
	}

	if notes[0][0] != "Quang hợp là gì?" || !strings.Contains(notes[0][1], "CO2") {
		t.Errorf("note basic không khớp: %v", notes[0])
	}
	if !strings.Contains(notes[1][0], "{{c1::ánh sáng}}") {
		t.Errorf("note cloze phải giữ nguyên cú pháp cloze: %v", notes[1])
	}
	if notes[2][0] != "Sản phẩm của quang hợp là gì?" {
		t.Errorf("note trắc nghiệm không khớp: %v", notes[2])
	}
	if !strings.Contains(notes[2][2], "O2") {
		t.Errorf("đáp án đúng phải chứa lựa chọn O2: %v", notes[2])
	}

	// note cloze có c1 và c2 nên sinh 2 card, hai note còn lại mỗi note 1 card
	var cardCount int
	if err := db.QueryRow(`SELECT count(*) FROM cards`).Scan(&cardCount); err != nil {
		t.Fatal(err)
	}
	if cardCount != 4 {
		t.Errorf("số card = %d, muốn 4", cardCount)
	}
}

func TestCardOrdinals(t *testing.T) {
	tests := []struct {
		name string
		card decodedCard
		want []int
	}{
		{
			name: "note thường",
			card: decodedCard{CardType: models.CardTypeBasic},
			want: []int{0},
		},
		{
			name: "cloze hai số",
			card: decodedCard{CardType: models.CardTypeCloze, Cloze: models.ClozeCardData{Text: "{{c1::a}} và {{c2::b}}"}},
			want: []int{0, 1},
		},
		{
			name: "cloze lặp số",
			card: decodedCard{CardType: models.CardTypeCloze, Cloze: models.ClozeCardData{Text: "{{c1::a}} rồi {{c1::b}}"}},
			want: []int{0},
		},
		{
			name: "cloze không có marker",
			card: decodedCard{CardType: models.CardTypeCloze, Cloze: models.ClozeCardData{Text: "không có gì"}},
			want: []int{0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cardOrdinals(tt.card); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("cardOrdinals = %v, muốn %v", got, tt.want)
			}
		})
	}
}

// ===== CSV =====

func TestToCSVRoundTrip(t *testing.T) {
	e := newTestExporter(t)
	cards := mixedDeck(t)

	csvPath, err := e.ToCSV("Sinh học 11", cards)
	if err != nil {
		t.Fatalf("ToCSV lỗi: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("đọc CSV lỗi: %v", err)
	}
	if !reflect.DeepEqual(records[0], csvHeader) {
		t.Errorf("header = %v, muốn %v", records[0], csvHeader)
	}
	if len(records) != 4 {
		t.Fatalf("muốn 1 header + 3 dòng, got %d", len(records))
	}

	basic := records[1]
	if basic[0] != models.CardTypeBasic || basic[1] != "Quang hợp là gì?" {
		t.Errorf("dòng basic không khớp: %v", basic)
	}

	cloze := records[2]
	if cloze[2] != "ánh sáng|diệp lục" {
		t.Errorf("cloze_items phải nối bằng |, got %q", cloze[2])
	}

	choice := records[3]
	if choice[3] != "O2|CO2|N2" || choice[4] != "0" {
		t.Errorf("dòng trắc nghiệm không khớp: %v", choice)
	}
	if choice[5] != "anki_genix" {
		t.Errorf("tags = %q, muốn anki_genix", choice[5])
	}
}

// ===== XLSX =====

func TestToXLSXRoundTrip(t *testing.T) {
	e := newTestExporter(t)
	cards := mixedDeck(t)

	xlsxPath, err := e.ToXLSX("Sinh học 11", cards)
	if err != nil {
		t.Fatalf("ToXLSX lỗi: %v", err)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("mở xlsx lỗi: %v", err)
	}
	defer f.Close()

	basicRows, err := f.GetRows(sheetBasic)
	if err != nil {
		t.Fatal(err)
	}
	if len(basicRows) != 2 || basicRows[1][0] != "Quang hợp là gì?" {
		t.Errorf("sheet Basic không khớp: %v", basicRows)
	}

	clozeRows, err := f.GetRows(sheetCloze)
	if err != nil {
		t.Fatal(err)
	}
	if len(clozeRows) != 2 || clozeRows[1][1] != "ánh sáng|diệp lục" {
		t.Errorf("sheet Cloze không khớp: %v", clozeRows)
	}

	choiceRows, err := f.GetRows(sheetChoice)
	if err != nil {
		t.Fatal(err)
	}
	if len(choiceRows) != 2 || choiceRows[1][1] != "O2|CO2|N2" {
		t.Errorf("sheet MultipleChoice không khớp: %v", choiceRows)
	}
}

// ===== decode =====

func TestDecodeCardsRejectsUnknownType(t *testing.T) {
	cards := []models.Flashcard{
		{ID: uuid.New(), CardType: "audio", CardData: datatypes.JSON(`{}`)},
	}
	if _, err := decodeCards(cards); err == nil {
		t.Fatal("card_type lạ phải trả lỗi")
	}
}
