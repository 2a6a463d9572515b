package services

import (
	"encoding/json"
	"strings"
)

// AIResult là kết quả đã phân loại từ output tự do của AI:
// hoặc JSON decode được (Structured), hoặc text gốc nguyên văn.
// Parse không bao giờ trả lỗi — caller tự quyết raw text nghĩa là gì.
type AIResult struct {
	structured json.RawMessage
	raw        string
}

// Structured báo output có phải JSON hợp lệ không
func (r AIResult) Structured() bool {
	return r.structured != nil
}

// JSON trả về payload đã decode (nil nếu không structured)
func (r AIResult) JSON() json.RawMessage {
	return r.structured
}

// Raw trả về text gốc của AI (sau khi đã bỏ code fence)
func (r AIResult) Raw() string {
	return r.raw
}

// ParseAIResult bỏ code fence markdown rồi thử decode JSON.
// Output không decode được vẫn trả về nguyên văn để debug.
func ParseAIResult(output string) AIResult {
	clean := StripCodeFences(output)

	var probe interface{}
	if err := json.Unmarshal([]byte(clean), &probe); err == nil {
		return AIResult{structured: json.RawMessage(clean), raw: clean}
	}
	return AIResult{raw: clean}
}

// StripCodeFences loại bỏ markdown fence ```json ... ``` quanh output
func StripCodeFences(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// DecodeCardList thử decode kết quả AI thành danh sách thẻ.
// Trả về false khi output không phải JSON list — workflow coi đó là thất bại.
func (r AIResult) DecodeCardList(out interface{}) bool {
	if !r.Structured() {
		return false
	}
	if err := json.Unmarshal(r.structured, out); err != nil {
		return false
	}
	return true
}

// DecodeCatalog thử decode kết quả AI thành rừng node mục lục
func (r AIResult) DecodeCatalog() ([]*CatalogNode, bool) {
	if !r.Structured() {
		return nil, false
	}
	nodes, err := DecodeCatalogNodes(r.structured)
	if err != nil || len(nodes) == 0 {
		return nil, false
	}
	return nodes, true
}
