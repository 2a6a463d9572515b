package services

import (
	"reflect"
	"testing"
)

func sampleCatalog() []*CatalogNode {
	return []*CatalogNode{
		{
			Title: "Đại số tuyến tính",
			Children: []*CatalogNode{
				{Title: "Ma trận"},
				{
					Title: "Không gian vector",
					Children: []*CatalogNode{
						{Title: "Cơ sở và số chiều"},
						{Title: "Ánh xạ tuyến tính"},
					},
				},
			},
		},
		{
			Title: "Giải tích",
			Children: []*CatalogNode{
				{Title: "Giới hạn"},
			},
		},
	}
}

func TestAssignSectionIDs(t *testing.T) {
	nodes := sampleCatalog()
	AssignSectionIDs(nodes)

	got := CollectSectionIDs(nodes)
	want := []string{"1", "1.1", "1.2", "1.2.1", "1.2.2", "2", "2.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CollectSectionIDs = %v, muốn %v", got, want)
	}
}

func TestAssignSectionIDsDeterministic(t *testing.T) {
	first := sampleCatalog()
	second := sampleCatalog()
	AssignSectionIDs(first)
	AssignSectionIDs(second)

	if !reflect.DeepEqual(CollectSectionIDs(first), CollectSectionIDs(second)) {
		t.Fatal("cùng input phải cho ra cùng bộ id")
	}
}

func TestAssignSectionIDsUnique(t *testing.T) {
	nodes := sampleCatalog()
	AssignSectionIDs(nodes)

	seen := map[string]bool{}
	for _, id := range CollectSectionIDs(nodes) {
		if seen[id] {
			t.Fatalf("id %q bị trùng", id)
		}
		seen[id] = true
	}
}

func TestAssignSectionIDsOverwritesStale(t *testing.T) {
	nodes := []*CatalogNode{
		{ID: "99", Title: "A", Children: []*CatalogNode{{ID: "x.y", Title: "B"}}},
	}
	AssignSectionIDs(nodes)

	if nodes[0].ID != "1" || nodes[0].Children[0].ID != "1.1" {
		t.Fatalf("id cũ phải bị gán lại, got %q / %q", nodes[0].ID, nodes[0].Children[0].ID)
	}
}

func TestResolveSelectedTitles(t *testing.T) {
	nodes := sampleCatalog()
	AssignSectionIDs(nodes)

	tests := []struct {
		name     string
		selected []string
		want     []SectionTitle
	}{
		{
			name:     "node lá",
			selected: []string{"1.2.1"},
			want: []SectionTitle{
				{SectionID: "1.2.1", Title: "Đại số tuyến tính - Không gian vector - Cơ sở và số chiều"},
			},
		},
		{
			name:     "cha và con cùng chọn thì chỉ giữ con",
			selected: []string{"1.2", "1.2.2"},
			want: []SectionTitle{
				{SectionID: "1.2.2", Title: "Đại số tuyến tính - Không gian vector - Ánh xạ tuyến tính"},
			},
		},
		{
			name:     "id không tồn tại bị bỏ qua",
			selected: []string{"1.1", "7.7.7"},
			want: []SectionTitle{
				{SectionID: "1.1", Title: "Đại số tuyến tính - Ma trận"},
			},
		},
		{
			name:     "giữ thứ tự tài liệu",
			selected: []string{"2.1", "1.1"},
			want: []SectionTitle{
				{SectionID: "1.1", Title: "Đại số tuyến tính - Ma trận"},
				{SectionID: "2.1", Title: "Giải tích - Giới hạn"},
			},
		},
		{
			name:     "không chọn gì",
			selected: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSelectedTitles(nodes, tt.selected)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ResolveSelectedTitles(%v) = %v, muốn %v", tt.selected, got, tt.want)
			}
		})
	}
}

func TestResolveSelectedTitlesNodeGiua(t *testing.T) {
	// node giữa được chọn mà không có con nào được chọn thì chính nó là mục sinh thẻ
	nodes := sampleCatalog()
	AssignSectionIDs(nodes)

	got := ResolveSelectedTitles(nodes, []string{"1.2"})
	want := []SectionTitle{
		{SectionID: "1.2", Title: "Đại số tuyến tính - Không gian vector"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, muốn %v", got, want)
	}
}

func TestDecodeCatalogNodes(t *testing.T) {
	data := []byte(`[{"title":"A","children":[{"title":"B"}]}]`)
	nodes, err := DecodeCatalogNodes(data)
	if err != nil {
		t.Fatalf("DecodeCatalogNodes lỗi: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Title != "A" || len(nodes[0].Children) != 1 {
		t.Fatalf("decode sai: %+v", nodes)
	}

	if _, err := DecodeCatalogNodes([]byte(`{"title":"A"}`)); err == nil {
		t.Fatal("object đơn lẻ phải lỗi, catalog là một list")
	}
}
