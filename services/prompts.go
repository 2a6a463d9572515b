package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evepupil/anki-genix-backend/models"
)

//go:embed prompts_catalog.yaml
var promptsCatalogYAML []byte

//go:embed prompts_flashcard.yaml
var promptsFlashcardYAML []byte

// InputForm là hình thức input của một lần sinh
type InputForm string

const (
	FormText InputForm = "text"
	FormFile InputForm = "file"
)

// GenerationMode là chế độ sinh nội dung
type GenerationMode string

const (
	ModeTopic   GenerationMode = "topic"   // sinh từ tên chủ đề
	ModeFull    GenerationMode = "full"    // sinh từ toàn bộ nội dung
	ModeSection GenerationMode = "section" // sinh theo từng mục đã chọn
)

// PromptKey định danh một template: loại nội dung (catalog_analysis hoặc
// card type), hình thức input và chế độ sinh. Bộ ba đóng, validate tại boundary.
type PromptKey struct {
	ContentKind string
	Form        InputForm
	Mode        GenerationMode
}

func (k PromptKey) validate() error {
	switch k.ContentKind {
	case "catalog_analysis", models.CardTypeBasic, models.CardTypeCloze, models.CardTypeMultipleChoice:
	default:
		return fmt.Errorf("content kind không hợp lệ: %s", k.ContentKind)
	}
	switch k.Form {
	case FormText, FormFile:
	default:
		return fmt.Errorf("input form không hợp lệ: %s", k.Form)
	}
	switch k.Mode {
	case ModeTopic, ModeFull, ModeSection:
	default:
		return fmt.Errorf("generation mode không hợp lệ: %s", k.Mode)
	}
	return nil
}

// PromptStore tra cứu template theo (kind, mode, form), thay placeholder
// [TOPIC], [TEXT_CONTENT], [NUMBER], [SECTION_TITLE] và {language}.
type PromptStore struct {
	// kind -> mode -> form -> template
	templates map[string]map[string]map[string]string
}

// NewPromptStore parse các file prompt YAML nhúng sẵn
func NewPromptStore() (*PromptStore, error) {
	templates := map[string]map[string]map[string]string{}
	for _, raw := range [][]byte{promptsCatalogYAML, promptsFlashcardYAML} {
		var data map[string]map[string]map[string]string
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse prompt yaml thất bại: %w", err)
		}
		for kind, modes := range data {
			templates[kind] = modes
		}
	}
	return &PromptStore{templates: templates}, nil
}

// Build trả về prompt hoàn chỉnh cho key và params.
// params["lang"] điền vào {language}; các placeholder khác điền từ params theo tên.
func (s *PromptStore) Build(key PromptKey, params map[string]string) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	modes, ok := s.templates[key.ContentKind]
	if !ok {
		return "", fmt.Errorf("không có template cho content kind %q", key.ContentKind)
	}
	forms, ok := modes[string(key.Mode)]
	if !ok {
		return "", fmt.Errorf("content kind %q không hỗ trợ mode %q", key.ContentKind, key.Mode)
	}
	tmpl, ok := forms[string(key.Form)]
	if !ok {
		// topic mode không phụ thuộc hình thức input
		tmpl, ok = forms[string(FormText)]
		if !ok {
			return "", fmt.Errorf("content kind %q mode %q không hỗ trợ form %q", key.ContentKind, key.Mode, key.Form)
		}
	}

	pairs := make([]string, 0, len(params)*2+2)
	lang := params["lang"]
	if lang == "" {
		lang = "vi"
	}
	pairs = append(pairs, "{language}", languageName(lang))
	for name, value := range params {
		if name == "lang" {
			continue
		}
		pairs = append(pairs, "["+name+"]", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

func languageName(lang string) string {
	switch lang {
	case "vi":
		return "tiếng Việt"
	case "en":
		return "English"
	case "zh":
		return "中文"
	case "ja":
		return "日本語"
	}
	return lang
}
