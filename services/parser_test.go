package services

import (
	"testing"

	"github.com/evepupil/anki-genix-backend/models"
)

func TestParseAIResult(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		structured bool
		raw        string
	}{
		{
			name:       "JSON thuần",
			output:     `[{"question":"Q","answer":"A"}]`,
			structured: true,
			raw:        `[{"question":"Q","answer":"A"}]`,
		},
		{
			name:       "JSON trong code fence",
			output:     "```json\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```",
			structured: true,
			raw:        `[{"question":"Q","answer":"A"}]`,
		},
		{
			name:       "code fence không có tag json",
			output:     "```\n{\"title\":\"X\"}\n```",
			structured: true,
			raw:        `{"title":"X"}`,
		},
		{
			name:       "text tự do",
			output:     "Xin lỗi, tôi không thể tạo thẻ từ nội dung này.",
			structured: false,
			raw:        "Xin lỗi, tôi không thể tạo thẻ từ nội dung này.",
		},
		{
			name:       "JSON hỏng giữ nguyên văn",
			output:     `[{"question": "Q"`,
			structured: false,
			raw:        `[{"question": "Q"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseAIResult(tt.output)
			if res.Structured() != tt.structured {
				t.Fatalf("Structured() = %v, muốn %v", res.Structured(), tt.structured)
			}
			if res.Raw() != tt.raw {
				t.Fatalf("Raw() = %q, muốn %q", res.Raw(), tt.raw)
			}
		})
	}
}

func TestDecodeCardList(t *testing.T) {
	res := ParseAIResult("```json\n[{\"question\":\"1+1?\",\"answer\":\"2\"}]\n```")

	var cards []models.BasicCardData
	if !res.DecodeCardList(&cards) {
		t.Fatal("DecodeCardList phải thành công")
	}
	if len(cards) != 1 || cards[0].Question != "1+1?" || cards[0].Answer != "2" {
		t.Fatalf("decode sai: %+v", cards)
	}

	var fromRaw []models.BasicCardData
	if ParseAIResult("không phải json").DecodeCardList(&fromRaw) {
		t.Fatal("text tự do không được decode thành list")
	}
}

func TestDecodeCatalog(t *testing.T) {
	res := ParseAIResult(`[{"title":"Chương 1","children":[{"title":"Mục 1"}]}]`)
	nodes, ok := res.DecodeCatalog()
	if !ok {
		t.Fatal("DecodeCatalog phải thành công")
	}
	if len(nodes) != 1 || nodes[0].Title != "Chương 1" {
		t.Fatalf("decode sai: %+v", nodes)
	}

	if _, ok := ParseAIResult(`[]`).DecodeCatalog(); ok {
		t.Fatal("catalog rỗng coi như decode thất bại")
	}
	if _, ok := ParseAIResult("text").DecodeCatalog(); ok {
		t.Fatal("text tự do không phải catalog")
	}
}
