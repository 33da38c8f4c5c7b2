package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

// buildTree returns a small dashboard tree with fixed identifiers so output
// can be compared across runs.
func buildTree(t *testing.T) *Tree {
	t.Helper()
	tree := New("Sales Overview")
	if err := tree.AddChild(GridID, Node{ID: "TAB-one", Position: TabPosition{Label: "Revenue", Width: 12}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddChild("TAB-one", Node{ID: "ROW-one", Position: NewRow()}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddChild("ROW-one", Node{ID: "CHART-one", Position: ChartPosition{Width: 6, Height: 50, ChartID: 42, SliceName: "Revenue by Region"}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddChild("ROW-one", Node{ID: "MARKDOWN-one", Position: MarkdownPosition{Width: 6, Height: 50, Code: "## Notes"}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddChild(GridID, Node{ID: "DIVIDER-one", Position: DividerPosition{Width: 12}}); err != nil {
		t.Fatal(err)
	}
	return tree
}

func decodeDoc(t *testing.T, data []byte) map[string]json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	return doc
}

func decodeRecord(t *testing.T, doc map[string]json.RawMessage, key string) record {
	t.Helper()
	raw, ok := doc[key]
	if !ok {
		t.Fatalf("output missing key %q", key)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("record %q: %v", key, err)
	}
	return rec
}

func TestMarshalScenario(t *testing.T) {
	// Root, one tab, one chart: the minimal dashboard.
	tree := New("minimal")
	if err := tree.AddChild(RootID, Node{ID: "A", Position: TabPosition{Label: "A", Width: 12}}); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddChild("A", Node{ID: "C", Position: ChartPosition{Width: 6, Height: 50, ChartID: 7}}); err != nil {
		t.Fatal(err)
	}

	data, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	doc := decodeDoc(t, data)

	for _, key := range []string{RootID, GridID, HeaderID, VersionKey, "A", "C"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("output missing key %q", key)
		}
	}

	root := decodeRecord(t, doc, RootID)
	if !slices.Equal(root.Children, []string{GridID}) {
		t.Errorf("root children = %v, want [%s]", root.Children, GridID)
	}
	grid := decodeRecord(t, doc, GridID)
	if !slices.Equal(grid.Children, []string{"A"}) {
		t.Errorf("grid children = %v, want [A]", grid.Children)
	}
	tab := decodeRecord(t, doc, "A")
	if !slices.Equal(tab.Children, []string{"C"}) {
		t.Errorf("tab children = %v, want [C]", tab.Children)
	}
	chart := decodeRecord(t, doc, "C")
	if len(chart.Children) != 0 {
		t.Errorf("chart children = %v, want none", chart.Children)
	}
	if chart.Type != "CHART" {
		t.Errorf("chart type = %q, want CHART", chart.Type)
	}
	if !slices.Equal(chart.Parents, []string{RootID, GridID, "A"}) {
		t.Errorf("chart parents = %v, want root-first chain", chart.Parents)
	}
}

func TestMarshalVersionAndHeader(t *testing.T) {
	data, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	doc := decodeDoc(t, data)

	var version string
	if err := json.Unmarshal(doc[VersionKey], &version); err != nil || version != Version {
		t.Errorf("version marker = %q (%v), want %q", version, err, Version)
	}

	header := decodeRecord(t, doc, HeaderID)
	if header.Type != "HEADER" {
		t.Errorf("header type = %q, want HEADER", header.Type)
	}
	if header.Meta["text"] != "Sales Overview" {
		t.Errorf("header text = %v, want dashboard title", header.Meta["text"])
	}
}

func TestMarshalDeterministic(t *testing.T) {
	tree := buildTree(t)

	first, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := Marshal(tree)
	if err != nil {
		t.Fatalf("second Marshal() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated Marshal() produced different bytes")
	}

	// An independently built but identical tree must also match.
	rebuilt, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatalf("Marshal(rebuilt) error = %v", err)
	}
	if !bytes.Equal(first, rebuilt) {
		t.Error("identical trees produced different bytes")
	}
}

func TestMarshalChildKeyClosure(t *testing.T) {
	data, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	doc := decodeDoc(t, data)

	for key := range doc {
		if key == VersionKey {
			continue
		}
		rec := decodeRecord(t, doc, key)
		for _, child := range rec.Children {
			if _, ok := doc[child]; !ok {
				t.Errorf("record %q references child %q that is not a top-level key", key, child)
			}
		}
	}
}

func TestMarshalSingleParent(t *testing.T) {
	data, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	doc := decodeDoc(t, data)

	parentOf := make(map[string]string)
	for key := range doc {
		if key == VersionKey {
			continue
		}
		rec := decodeRecord(t, doc, key)
		for _, child := range rec.Children {
			if prev, ok := parentOf[child]; ok {
				t.Errorf("child %q appears under both %q and %q", child, prev, key)
			}
			parentOf[child] = key
		}
	}
}

func TestMarshalCorruptedTree(t *testing.T) {
	t.Run("dangling child reference", func(t *testing.T) {
		tree := buildTree(t)
		tree.children[GridID] = append(tree.children[GridID], "ghost")

		if _, err := Marshal(tree); !errors.Is(err, ErrSerialize) {
			t.Errorf("Marshal() error = %v, want ErrSerialize", err)
		}
	})

	t.Run("child claimed twice", func(t *testing.T) {
		tree := buildTree(t)
		tree.children["DIVIDER-one"] = []string{"CHART-one"}

		if _, err := Marshal(tree); !errors.Is(err, ErrSerialize) {
			t.Errorf("Marshal() error = %v, want ErrSerialize", err)
		}
	})

	t.Run("unreachable node", func(t *testing.T) {
		tree := buildTree(t)
		tree.nodes["orphan"] = &Node{ID: "orphan", Kind: KindRow, Position: NewRow()}

		if _, err := Marshal(tree); !errors.Is(err, ErrSerialize) {
			t.Errorf("Marshal() error = %v, want ErrSerialize", err)
		}
	})

	t.Run("position invalidated after insert", func(t *testing.T) {
		tree := buildTree(t)
		n, _ := tree.FindNode("TAB-one")
		n.Position = TabPosition{Label: "", Width: 12}

		if _, err := Marshal(tree); !errors.Is(err, ErrSerialize) {
			t.Errorf("Marshal() error = %v, want ErrSerialize", err)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	original, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	tree, err := Unmarshal(original)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tree.Title() != "Sales Overview" {
		t.Errorf("Title() = %q, want %q", tree.Title(), "Sales Overview")
	}

	reserialized, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal(round trip) error = %v", err)
	}
	if !bytes.Equal(original, reserialized) {
		t.Errorf("round trip changed bytes:\n first = %s\nsecond = %s", original, reserialized)
	}
}

func TestWriteRead(t *testing.T) {
	tree := buildTree(t)

	var buf bytes.Buffer
	if err := Write(tree, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"CHART-one\"") {
		t.Error("Write() output is not indented")
	}

	parsed, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want, _ := Marshal(tree)
	got, err := Marshal(parsed)
	if err != nil {
		t.Fatalf("Marshal(parsed) error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("Read() tree does not match original")
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	valid, err := Marshal(buildTree(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(doc map[string]json.RawMessage)
	}{
		{
			name: "missing version marker",
			mutate: func(doc map[string]json.RawMessage) {
				delete(doc, VersionKey)
			},
		},
		{
			name: "wrong version",
			mutate: func(doc map[string]json.RawMessage) {
				doc[VersionKey] = json.RawMessage(`"v1"`)
			},
		},
		{
			name: "missing root record",
			mutate: func(doc map[string]json.RawMessage) {
				delete(doc, RootID)
			},
		},
		{
			name: "root with wrong type",
			mutate: func(doc map[string]json.RawMessage) {
				doc[RootID] = json.RawMessage(`{"type":"GRID","id":"ROOT_ID","children":["GRID_ID"]}`)
			},
		},
		{
			name: "dangling child reference",
			mutate: func(doc map[string]json.RawMessage) {
				delete(doc, "CHART-one")
			},
		},
		{
			name: "orphan record",
			mutate: func(doc map[string]json.RawMessage) {
				doc["ROW-stray"] = json.RawMessage(`{"type":"ROW","id":"ROW-stray","children":[]}`)
			},
		},
		{
			name: "mismatched record id",
			mutate: func(doc map[string]json.RawMessage) {
				doc["TAB-one"] = json.RawMessage(`{"type":"TAB","id":"TAB-other","children":["ROW-one"],"meta":{"text":"x","width":12}}`)
			},
		},
		{
			name: "unknown node type",
			mutate: func(doc map[string]json.RawMessage) {
				doc["DIVIDER-one"] = json.RawMessage(`{"type":"BEAM","id":"DIVIDER-one","children":[]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeDoc(t, valid)
			tt.mutate(doc)
			data, err := json.Marshal(doc)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Unmarshal(data); err == nil {
				t.Error("Unmarshal() expected error, got nil")
			}
		})
	}
}

func TestUnmarshalDoubleParentRejected(t *testing.T) {
	doc := `{
		"DASHBOARD_VERSION_KEY": "v2",
		"ROOT_ID": {"type": "ROOT", "id": "ROOT_ID", "children": ["GRID_ID"]},
		"GRID_ID": {"type": "GRID", "id": "GRID_ID", "children": ["ROW-a", "ROW-b"]},
		"ROW-a": {"type": "ROW", "id": "ROW-a", "children": ["CHART-x"], "meta": {"background": "BACKGROUND_TRANSPARENT"}},
		"ROW-b": {"type": "ROW", "id": "ROW-b", "children": ["CHART-x"], "meta": {"background": "BACKGROUND_TRANSPARENT"}},
		"CHART-x": {"type": "CHART", "id": "CHART-x", "children": [], "meta": {"width": 6, "height": 50, "chartId": 1}}
	}`

	if _, err := Unmarshal([]byte(doc)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Unmarshal() error = %v, want ErrDuplicateID", err)
	}
}

func TestUnmarshalForeignDefaults(t *testing.T) {
	// Documents written by the service's own editor omit geometry this
	// model requires; parsing fills in workable defaults.
	doc := `{
		"DASHBOARD_VERSION_KEY": "v2",
		"ROOT_ID": {"type": "ROOT", "id": "ROOT_ID", "children": ["GRID_ID"]},
		"HEADER_ID": {"type": "HEADER", "id": "HEADER_ID", "meta": {"text": "Imported"}},
		"GRID_ID": {"type": "GRID", "id": "GRID_ID", "children": ["TABS-a", "DIVIDER-a"]},
		"TABS-a": {"type": "TABS", "id": "TABS-a", "children": ["TAB-a"], "meta": {}},
		"TAB-a": {"type": "TAB", "id": "TAB-a", "children": ["ROW-a"], "meta": {"text": "First"}},
		"ROW-a": {"type": "ROW", "id": "ROW-a", "children": [], "meta": {}},
		"DIVIDER-a": {"type": "DIVIDER", "id": "DIVIDER-a", "children": [], "meta": {}}
	}`

	tree, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	tab, err := tree.FindNode("TAB-a")
	if err != nil {
		t.Fatal(err)
	}
	pos, ok := tab.Position.(TabPosition)
	if !ok {
		t.Fatalf("TAB-a position = %T, want TabPosition", tab.Position)
	}
	if pos.Label != "First" || pos.Width != GridColumns {
		t.Errorf("tab position = %+v, want label First and defaulted width %d", pos, GridColumns)
	}

	row, _ := tree.FindNode("ROW-a")
	if rp, ok := row.Position.(RowPosition); !ok || rp.Background != BackgroundTransparent {
		t.Errorf("row position = %+v, want defaulted transparent background", row.Position)
	}
}
