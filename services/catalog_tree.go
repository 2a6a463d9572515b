package services

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CatalogNode là một node trong mục lục sinh bởi AI (chương/mục/tiểu mục).
// ID được gán theo vị trí: chương thứ k là "k", mục thứ j của chương "k" là "k.j",
// tiểu mục thứ i của mục "k.j" là "k.j.i".
type CatalogNode struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Children    []*CatalogNode `json:"children,omitempty"`
}

// SectionTitle là tiêu đề hiển thị của một node được chọn,
// ghép tiêu đề tổ tiên từ gốc xuống lá bằng " - ".
type SectionTitle struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
}

// walkCatalog duyệt rừng node theo thứ tự tài liệu.
// visit nhận node hiện tại kèm chuỗi tổ tiên (gốc trước).
func walkCatalog(nodes []*CatalogNode, parents []*CatalogNode, visit func(node *CatalogNode, parents []*CatalogNode)) {
	for _, node := range nodes {
		visit(node, parents)
		if len(node.Children) > 0 {
			walkCatalog(node.Children, append(parents, node), visit)
		}
	}
}

// AssignSectionIDs gán id vị trí cho mọi node trong rừng.
// Cùng một input (đã có thứ tự) luôn cho ra cùng bộ id.
func AssignSectionIDs(nodes []*CatalogNode) {
	assignIDs(nodes, "")
}

func assignIDs(nodes []*CatalogNode, prefix string) {
	for i, node := range nodes {
		if prefix == "" {
			node.ID = strconv.Itoa(i + 1)
		} else {
			node.ID = prefix + "." + strconv.Itoa(i+1)
		}
		assignIDs(node.Children, node.ID)
	}
}

// ResolveSelectedTitles tìm tiêu đề hiển thị cho các id đã chọn.
// Nếu cả node cha lẫn node con cùng được chọn thì chỉ giữ node sâu nhất
// (tránh sinh thẻ trùng cho cha và con). Id không tồn tại trong cây bị
// bỏ qua, không báo lỗi — danh sách chọn có thể tham chiếu snapshot cũ.
func ResolveSelectedTitles(nodes []*CatalogNode, selectedIDs []string) []SectionTitle {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var titles []SectionTitle
	walkCatalog(nodes, nil, func(node *CatalogNode, parents []*CatalogNode) {
		if !selected[node.ID] {
			return
		}
		if hasSelectedDescendant(node, selected) {
			return
		}
		parts := make([]string, 0, len(parents)+1)
		for _, p := range parents {
			parts = append(parts, p.Title)
		}
		parts = append(parts, node.Title)
		titles = append(titles, SectionTitle{
			SectionID: node.ID,
			Title:     strings.Join(parts, " - "),
		})
	})
	return titles
}

func hasSelectedDescendant(node *CatalogNode, selected map[string]bool) bool {
	found := false
	walkCatalog(node.Children, nil, func(child *CatalogNode, _ []*CatalogNode) {
		if selected[child.ID] {
			found = true
		}
	})
	return found
}

// CollectSectionIDs trả về toàn bộ id có trong rừng, theo thứ tự tài liệu.
func CollectSectionIDs(nodes []*CatalogNode) []string {
	var ids []string
	walkCatalog(nodes, nil, func(node *CatalogNode, _ []*CatalogNode) {
		ids = append(ids, node.ID)
	})
	return ids
}

// DecodeCatalogNodes giải mã catalog_data JSONB về rừng node.
func DecodeCatalogNodes(data []byte) ([]*CatalogNode, error) {
	var nodes []*CatalogNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
