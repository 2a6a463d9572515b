package exporter

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/models"
)

// Model id cố định để deck import lại không tạo note type trùng
const (
	basicModelID  = 1693040100001
	clozeModelID  = 1693040100002
	choiceModelID = 1693040100003
)

var clozeOrdRe = regexp.MustCompile(`\{\{c(\d+)::`)

// collection.anki2 schema bản 11 (schema mà genanki/Anki desktop ghi)
const ankiSchema = `
CREATE TABLE col (
    id integer primary key,
    crt integer not null,
    mod integer not null,
    scm integer not null,
    ver integer not null,
    dty integer not null,
    usn integer not null,
    ls integer not null,
    conf text not null,
    models text not null,
    decks text not null,
    dconf text not null,
    tags text not null
);
CREATE TABLE notes (
    id integer primary key,
    guid text not null,
    mid integer not null,
    mod integer not null,
    usn integer not null,
    tags text not null,
    flds text not null,
    sfld text not null,
    csum integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE cards (
    id integer primary key,
    nid integer not null,
    did integer not null,
    ord integer not null,
    mod integer not null,
    usn integer not null,
    type integer not null,
    queue integer not null,
    due integer not null,
    ivl integer not null,
    factor integer not null,
    reps integer not null,
    lapses integer not null,
    left integer not null,
    odue integer not null,
    odid integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE revlog (
    id integer primary key,
    cid integer not null,
    usn integer not null,
    ease integer not null,
    ivl integer not null,
    lastIvl integer not null,
    factor integer not null,
    time integer not null,
    type integer not null
);
CREATE TABLE graves (
    usn integer not null,
    oid integer not null,
    type integer not null
);
CREATE INDEX ix_notes_usn on notes (usn);
CREATE INDEX ix_cards_usn on cards (usn);
CREATE INDEX ix_revlog_usn on revlog (usn);
CREATE INDEX ix_cards_nid on cards (nid);
CREATE INDEX ix_cards_sched on cards (did, queue, due);
CREATE INDEX ix_revlog_cid on revlog (cid);
CREATE INDEX ix_notes_csum on notes (csum);
`

// ToDeckPackage ghi các thẻ thành gói Anki .apkg
// (zip chứa collection.anki2 dạng sqlite và file media rỗng).
func (e *Exporter) ToDeckPackage(deckName string, cards []models.Flashcard) (string, error) {
	decoded, err := decodeCards(cards)
	if err != nil {
		return "", err
	}
	e.logger.Info("bắt đầu ghi gói Anki",
		zap.String("deck", deckName), zap.Int("cards", len(cards)))

	tmpDB, err := os.CreateTemp("", "collection-*.anki2")
	if err != nil {
		return "", err
	}
	tmpDB.Close()
	defer os.Remove(tmpDB.Name())

	if err := e.writeCollection(tmpDB.Name(), deckName, decoded); err != nil {
		return "", fmt.Errorf("ghi collection thất bại: %w", err)
	}

	outPath := e.filePath(deckName, "apkg")
	if err := writeApkgZip(outPath, tmpDB.Name()); err != nil {
		return "", fmt.Errorf("đóng gói apkg thất bại: %w", err)
	}
	e.logger.Info("đã ghi gói Anki", zap.String("file", outPath))
	return outPath, nil
}

func (e *Exporter) writeCollection(dbPath, deckName string, cards []decodedCard) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(ankiSchema); err != nil {
		return err
	}

	now := time.Now().Unix()
	deckID := rand.Int63n(1<<31-1<<30) + 1<<30

	colConf := map[string]interface{}{
		"activeDecks": []int64{deckID},
		"curDeck":     deckID,
		"newSpread":   0, "collapseTime": 1200, "timeLim": 0, "estTimes": true,
		"dueCounts": true, "curModel": strconv.FormatInt(basicModelID, 10),
		"nextPos": 1, "sortType": "noteFld", "sortBackwards": false, "addToCur": true,
	}
	decks := map[string]interface{}{
		"1": deckJSON(1, "Default", now),
		strconv.FormatInt(deckID, 10): deckJSON(deckID, deckName, now),
	}
	dconf := map[string]interface{}{"1": map[string]interface{}{"id": 1, "name": "Default"}}
	modelsJSON := map[string]interface{}{
		strconv.FormatInt(basicModelID, 10):  basicModelJSON(now),
		strconv.FormatInt(clozeModelID, 10):  clozeModelJSON(now),
		strconv.FormatInt(choiceModelID, 10): choiceModelJSON(now),
	}

	confB, _ := json.Marshal(colConf)
	modelsB, _ := json.Marshal(modelsJSON)
	decksB, _ := json.Marshal(decks)
	dconfB, _ := json.Marshal(dconf)

	if _, err := db.Exec(
		`INSERT INTO col VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now, now*1000, now*1000, string(confB), string(modelsB), string(decksB), string(dconfB),
	); err != nil {
		return err
	}

	noteID := now * 1000
	cardID := noteID + 1_000_000
	due := 1
	for _, card := range cards {
		noteID++
		var mid int64
		var fields []string
		switch card.CardType {
		case models.CardTypeBasic:
			mid = basicModelID
			fields = []string{card.Basic.Question, card.Basic.Answer}
		case models.CardTypeCloze:
			mid = clozeModelID
			fields = []string{card.Cloze.Text, strings.Join(card.Cloze.ClozeItems, "<br>")}
		case models.CardTypeMultipleChoice:
			mid = choiceModelID
			fields = []string{
				card.Choice.Question,
				formatOptions(card.Choice.Options),
				formatAnswer(card.Choice.Options, card.Choice.CorrectIndex),
			}
		}

		flds := strings.Join(fields, "\x1f")
		sfld := fields[0]
		if _, err := db.Exec(
			`INSERT INTO notes VALUES (?, ?, ?, ?, -1, ' anki_genix ', ?, ?, ?, 0, '')`,
			noteID, noteGUID(flds), mid, now, flds, sfld, fieldChecksum(sfld),
		); err != nil {
			return err
		}

		for _, ord := range cardOrdinals(card) {
			cardID++
			if _, err := db.Exec(
				`INSERT INTO cards VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`,
				cardID, noteID, deckID, ord, now, due,
			); err != nil {
				return err
			}
			due++
		}
	}
	return nil
}

// cardOrdinals: note thường sinh 1 card ord 0; note cloze sinh một card
// cho mỗi số cloze {{cN::...}} xuất hiện trong text
func cardOrdinals(card decodedCard) []int {
	if card.CardType != models.CardTypeCloze {
		return []int{0}
	}
	seen := map[int]bool{}
	var ords []int
	for _, m := range clozeOrdRe.FindAllStringSubmatch(card.Cloze.Text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || seen[n] {
			continue
		}
		seen[n] = true
		ords = append(ords, n-1)
	}
	if len(ords) == 0 {
		ords = []int{0}
	}
	return ords
}

func formatOptions(options []string) string {
	parts := make([]string, 0, len(options))
	for i, opt := range options {
		parts = append(parts, fmt.Sprintf("%s. %s", optionLabel(i), opt))
	}
	return strings.Join(parts, "<br>")
}

func formatAnswer(options []string, correctIndex int) string {
	if correctIndex < 0 || correctIndex >= len(options) {
		return ""
	}
	return fmt.Sprintf("%s. %s", optionLabel(correctIndex), options[correctIndex])
}

func fieldChecksum(sfld string) int64 {
	sum := sha1.Sum([]byte(sfld))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return v
}

func noteGUID(flds string) string {
	sum := sha1.Sum([]byte(flds))
	return hex.EncodeToString(sum[:])[:10]
}

func deckJSON(id int64, name string, now int64) map[string]interface{} {
	return map[string]interface{}{
		"id": id, "name": name, "mod": now, "usn": -1,
		"collapsed": false, "desc": "", "dyn": 0, "conf": 1,
		"extendNew": 0, "extendRev": 0,
		"lrnToday": []int{0, 0}, "revToday": []int{0, 0},
		"newToday": []int{0, 0}, "timeToday": []int{0, 0},
	}
}

func modelField(name string, ord int) map[string]interface{} {
	return map[string]interface{}{
		"name": name, "ord": ord, "sticky": false, "rtl": false,
		"font": "Arial", "size": 20, "media": []string{},
	}
}

func modelTemplate(name string, ord int, qfmt, afmt string) map[string]interface{} {
	return map[string]interface{}{
		"name": name, "ord": ord, "qfmt": qfmt, "afmt": afmt,
		"bqfmt": "", "bafmt": "", "did": nil,
	}
}

func baseModelJSON(id int64, name string, modelType int, now int64, fields, tmpls []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id": id, "name": name, "type": modelType, "mod": now, "usn": -1,
		"sortf": 0, "did": 1, "flds": fields, "tmpls": tmpls,
		"css":      ".card { font-family: arial; font-size: 20px; text-align: center; color: black; background-color: white; }",
		"latexPre": "", "latexPost": "", "tags": []string{}, "vers": []string{},
		"req": []interface{}{[]interface{}{0, "all", []int{0}}},
	}
}

func basicModelJSON(now int64) map[string]interface{} {
	return baseModelJSON(basicModelID, "Basic Card", 0, now,
		[]map[string]interface{}{modelField("Question", 0), modelField("Answer", 1)},
		[]map[string]interface{}{modelTemplate("Card 1", 0,
			"{{Question}}", `{{FrontSide}}<hr id="answer">{{Answer}}`)},
	)
}

func clozeModelJSON(now int64) map[string]interface{} {
	return baseModelJSON(clozeModelID, "Cloze Card", 1, now,
		[]map[string]interface{}{modelField("Text", 0), modelField("Extra", 1)},
		[]map[string]interface{}{modelTemplate("Cloze Card", 0,
			"{{cloze:Text}}", `{{cloze:Text}}<hr id="extra">{{Extra}}`)},
	)
}

func choiceModelJSON(now int64) map[string]interface{} {
	return baseModelJSON(choiceModelID, "Multiple Choice Card", 0, now,
		[]map[string]interface{}{modelField("Question", 0), modelField("Options", 1), modelField("Answer", 2)},
		[]map[string]interface{}{modelTemplate("Card 1", 0,
			"{{Question}}<br><br>{{Options}}", `{{FrontSide}}<hr id="answer">Đáp án đúng: {{Answer}}`)},
	)
}

func writeApkgZip(outPath, dbPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	dbEntry, err := zw.Create("collection.anki2")
	if err != nil {
		return err
	}
	dbFile, err := os.Open(dbPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dbEntry, dbFile); err != nil {
		dbFile.Close()
		return err
	}
	dbFile.Close()

	mediaEntry, err := zw.Create("media")
	if err != nil {
		return err
	}
	if _, err := mediaEntry.Write([]byte("{}")); err != nil {
		return err
	}
	return zw.Close()
}
