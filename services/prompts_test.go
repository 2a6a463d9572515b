package services

import (
	"strings"
	"testing"

	"github.com/evepupil/anki-genix-backend/models"
)

func newTestPromptStore(t *testing.T) *PromptStore {
	t.Helper()
	store, err := NewPromptStore()
	if err != nil {
		t.Fatalf("NewPromptStore lỗi: %v", err)
	}
	return store
}

func TestPromptStoreCoversAllKeys(t *testing.T) {
	store := newTestPromptStore(t)

	kinds := []string{"catalog_analysis", models.CardTypeBasic, models.CardTypeCloze, models.CardTypeMultipleChoice}
	modes := []GenerationMode{ModeTopic, ModeFull}
	forms := []InputForm{FormText, FormFile}

	params := map[string]string{
		"TOPIC":        "Quang hợp",
		"TEXT_CONTENT": "nội dung",
		"NUMBER":       "5",
	}
	for _, kind := range kinds {
		for _, mode := range modes {
			for _, form := range forms {
				prompt, err := store.Build(PromptKey{ContentKind: kind, Form: form, Mode: mode}, params)
				if err != nil {
					t.Fatalf("Build(%s/%s/%s) lỗi: %v", kind, mode, form, err)
				}
				if prompt == "" {
					t.Fatalf("Build(%s/%s/%s) trả về prompt rỗng", kind, mode, form)
				}
			}
		}
	}

	// section mode chỉ có cho card type, không có cho catalog
	for _, kind := range kinds[1:] {
		for _, form := range forms {
			params["SECTION_TITLE"] = "Chương 1 - Mục 1"
			if _, err := store.Build(PromptKey{ContentKind: kind, Form: form, Mode: ModeSection}, params); err != nil {
				t.Fatalf("Build(%s/section/%s) lỗi: %v", kind, form, err)
			}
		}
	}
	if _, err := store.Build(PromptKey{ContentKind: "catalog_analysis", Form: FormText, Mode: ModeSection}, params); err == nil {
		t.Fatal("catalog_analysis không hỗ trợ mode section")
	}
}

func TestPromptStoreSubstitution(t *testing.T) {
	store := newTestPromptStore(t)

	prompt, err := store.Build(
		PromptKey{ContentKind: models.CardTypeBasic, Form: FormText, Mode: ModeTopic},
		map[string]string{"TOPIC": "Quang hợp", "NUMBER": "7", "lang": "en"},
	)
	if err != nil {
		t.Fatalf("Build lỗi: %v", err)
	}
	if !strings.Contains(prompt, "Quang hợp") {
		t.Error("prompt thiếu topic")
	}
	if !strings.Contains(prompt, "7") {
		t.Error("prompt thiếu số lượng thẻ")
	}
	if !strings.Contains(prompt, "English") {
		t.Error("lang=en phải thay {language} bằng English")
	}
	if strings.Contains(prompt, "[TOPIC]") || strings.Contains(prompt, "[NUMBER]") || strings.Contains(prompt, "{language}") {
		t.Errorf("prompt còn sót placeholder: %s", prompt)
	}
}

func TestPromptStoreDefaultLang(t *testing.T) {
	store := newTestPromptStore(t)

	prompt, err := store.Build(
		PromptKey{ContentKind: "catalog_analysis", Form: FormText, Mode: ModeTopic},
		map[string]string{"TOPIC": "Hóa học"},
	)
	if err != nil {
		t.Fatalf("Build lỗi: %v", err)
	}
	if !strings.Contains(prompt, "tiếng Việt") {
		t.Error("không truyền lang thì mặc định tiếng Việt")
	}
}

func TestPromptStoreTopicModeFallsBackToText(t *testing.T) {
	store := newTestPromptStore(t)

	fromText, err := store.Build(
		PromptKey{ContentKind: models.CardTypeCloze, Form: FormText, Mode: ModeTopic},
		map[string]string{"TOPIC": "X", "NUMBER": "3"},
	)
	if err != nil {
		t.Fatalf("Build text lỗi: %v", err)
	}
	fromFile, err := store.Build(
		PromptKey{ContentKind: models.CardTypeCloze, Form: FormFile, Mode: ModeTopic},
		map[string]string{"TOPIC": "X", "NUMBER": "3"},
	)
	if err != nil {
		t.Fatalf("Build file lỗi: %v", err)
	}
	if fromText != fromFile {
		t.Error("topic mode không phụ thuộc hình thức input")
	}
}

func TestPromptKeyValidate(t *testing.T) {
	store := newTestPromptStore(t)

	tests := []struct {
		name string
		key  PromptKey
	}{
		{"content kind lạ", PromptKey{ContentKind: "podcast", Form: FormText, Mode: ModeTopic}},
		{"form lạ", PromptKey{ContentKind: models.CardTypeBasic, Form: "audio", Mode: ModeTopic}},
		{"mode lạ", PromptKey{ContentKind: models.CardTypeBasic, Form: FormText, Mode: "stream"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Build(tt.key, nil); err == nil {
				t.Fatal("key không hợp lệ phải trả lỗi")
			}
		})
	}
}
