package layout

import (
	"errors"
	"slices"
	"testing"
)

func mustTab(t *testing.T, label string, width int) TabPosition {
	t.Helper()
	p, err := NewTab(label, width)
	if err != nil {
		t.Fatalf("NewTab(%q, %d): %v", label, width, err)
	}
	return p
}

func mustChart(t *testing.T, chartID int, name string) ChartPosition {
	t.Helper()
	p, err := NewChart(chartID, name, 6, 50)
	if err != nil {
		t.Fatalf("NewChart(%d, %q): %v", chartID, name, err)
	}
	return p
}

func TestNewTree(t *testing.T) {
	tree := New("Sales Overview")

	if tree.Title() != "Sales Overview" {
		t.Errorf("Title() = %q, want %q", tree.Title(), "Sales Overview")
	}
	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (root and grid)", tree.Len())
	}
	if tree.Root().ID != RootID || tree.Root().Kind != KindRoot {
		t.Errorf("Root() = %+v, want reserved root node", tree.Root())
	}
	if tree.Grid().ID != GridID || tree.Grid().Kind != KindGrid {
		t.Errorf("Grid() = %+v, want reserved grid node", tree.Grid())
	}
	if got := tree.Children(RootID); !slices.Equal(got, []string{GridID}) {
		t.Errorf("Children(root) = %v, want [%s]", got, GridID)
	}
	if p, ok := tree.Parent(GridID); !ok || p != RootID {
		t.Errorf("Parent(grid) = %q, %v; want %q, true", p, ok, RootID)
	}
}

func TestAddChild(t *testing.T) {
	tree := New("test")
	tab := mustTab(t, "Overview", 12)

	if err := tree.AddChild(GridID, Node{ID: "tab-1", Position: tab}); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}

	n, err := tree.FindNode("tab-1")
	if err != nil {
		t.Fatalf("FindNode(tab-1) error = %v", err)
	}
	if n.Kind != KindTab {
		t.Errorf("Kind = %v, want %v (derived from position)", n.Kind, KindTab)
	}
	if got := tree.Children(GridID); !slices.Equal(got, []string{"tab-1"}) {
		t.Errorf("Children(grid) = %v, want [tab-1]", got)
	}
}

func TestAddChildUnderRootAttachesToGrid(t *testing.T) {
	tree := New("test")

	if err := tree.AddChild(RootID, Node{ID: "tab-1", Position: mustTab(t, "A", 12)}); err != nil {
		t.Fatalf("AddChild(root) error = %v", err)
	}

	if got := tree.Children(RootID); !slices.Equal(got, []string{GridID}) {
		t.Errorf("Children(root) = %v, want [%s] only", got, GridID)
	}
	if got := tree.Children(GridID); !slices.Equal(got, []string{"tab-1"}) {
		t.Errorf("Children(grid) = %v, want [tab-1]", got)
	}
}

func TestAddChildDuplicateID(t *testing.T) {
	tree := New("test")
	tab := mustTab(t, "A", 12)

	if err := tree.AddChild(GridID, Node{ID: "A", Position: tab}); err != nil {
		t.Fatalf("first AddChild error = %v", err)
	}

	before := tree.Len()
	err := tree.AddChild(GridID, Node{ID: "A", Position: tab})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("AddChild() error = %v, want ErrDuplicateID", err)
	}
	if tree.Len() != before {
		t.Errorf("Len() = %d after failed add, want %d (no mutation)", tree.Len(), before)
	}
	if got := tree.Children(GridID); !slices.Equal(got, []string{"A"}) {
		t.Errorf("Children(grid) = %v, want exactly one child", got)
	}
}

func TestAddChildReparentRejected(t *testing.T) {
	tree := New("test")
	tabA, _ := tree.AddTab(GridID, "A", 12)
	tabB, _ := tree.AddTab(GridID, "B", 12)
	chart, err := tree.AddChart(tabA.ID, 1, "Revenue", 6, 50)
	if err != nil {
		t.Fatalf("AddChart error = %v", err)
	}

	// Re-adding the same node under a different parent is a duplicate, not
	// a move.
	err = tree.AddChild(tabB.ID, Node{ID: chart.ID, Position: chart.Position})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("AddChild() error = %v, want ErrDuplicateID", err)
	}
	if got := tree.Children(tabB.ID); len(got) != 0 {
		t.Errorf("Children(tabB) = %v, want none", got)
	}
	if p, _ := tree.Parent(chart.ID); p != tabA.ID {
		t.Errorf("Parent(chart) = %q, want %q", p, tabA.ID)
	}
}

func TestAddChildUnknownParent(t *testing.T) {
	tree := New("test")
	before := tree.Len()

	err := tree.AddChild("missing", Node{ID: "tab-1", Position: mustTab(t, "A", 12)})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("AddChild() error = %v, want ErrNodeNotFound", err)
	}
	if tree.Len() != before {
		t.Errorf("Len() = %d after failed add, want %d (no mutation)", tree.Len(), before)
	}
	if tree.Has("tab-1") {
		t.Error("node was inserted despite unknown parent")
	}
}

func TestAddChildKindAcceptance(t *testing.T) {
	tree := New("test")
	tab, _ := tree.AddTab(GridID, "A", 12)
	row, _ := tree.AddRow(tab.ID)
	chart, _ := tree.AddChart(row.ID, 1, "Revenue", 6, 50)
	divider, _ := tree.AddDivider(GridID, 12)

	tests := []struct {
		name   string
		parent string
		child  Position
	}{
		{"chart cannot hold children", chart.ID, mustChart(t, 2, "x")},
		{"divider cannot hold children", divider.ID, mustChart(t, 2, "x")},
		{"row cannot hold tab", row.ID, mustTab(t, "B", 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tree.Len()
			err := tree.AddChild(tt.parent, Node{ID: NewID(tt.child.Kind()), Position: tt.child})
			if !errors.Is(err, ErrChildNotAllowed) {
				t.Errorf("AddChild() error = %v, want ErrChildNotAllowed", err)
			}
			if tree.Len() != before {
				t.Errorf("tree mutated on rejected add")
			}
		})
	}
}

func TestAddChildValidation(t *testing.T) {
	tree := New("test")

	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty id", Node{ID: "", Position: mustTab(t, "A", 12)}, ErrInvalidNodeID},
		{"control char id", Node{ID: "tab\x00", Position: mustTab(t, "A", 12)}, ErrInvalidNodeID},
		{"nil position", Node{ID: "tab-1"}, ErrInvalidPosition},
		{"invalid position", Node{ID: "tab-1", Position: TabPosition{Label: "", Width: 12}}, ErrInvalidPosition},
		{"kind position mismatch", Node{ID: "tab-1", Kind: KindRow, Position: mustTab(t, "A", 12)}, ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tree.AddChild(GridID, tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddChild() error = %v, want %v", err, tt.want)
			}
		})
	}

	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (nothing inserted)", tree.Len())
	}
}

func TestFindNode(t *testing.T) {
	tree := New("test")
	tab, _ := tree.AddTab(GridID, "A", 12)

	n, err := tree.FindNode(tab.ID)
	if err != nil {
		t.Fatalf("FindNode() error = %v", err)
	}
	if n.ID != tab.ID {
		t.Errorf("FindNode() = %v, want %v", n.ID, tab.ID)
	}

	if _, err := tree.FindNode("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("FindNode(missing) error = %v, want ErrNodeNotFound", err)
	}
}

func TestWalkOrder(t *testing.T) {
	tree := New("test")
	tabA, _ := tree.AddTab(GridID, "A", 12)
	tabB, _ := tree.AddTab(GridID, "B", 12)
	rowA, _ := tree.AddRow(tabA.ID)
	chartA1, _ := tree.AddChart(rowA.ID, 1, "a1", 6, 50)
	chartA2, _ := tree.AddChart(rowA.ID, 2, "a2", 6, 50)
	chartB, _ := tree.AddChart(tabB.ID, 3, "b", 6, 50)

	want := []string{RootID, GridID, tabA.ID, rowA.ID, chartA1.ID, chartA2.ID, tabB.ID, chartB.ID}

	var got []string
	for n := range tree.Walk() {
		got = append(got, n.ID)
	}
	if !slices.Equal(got, want) {
		t.Errorf("Walk order = %v, want %v", got, want)
	}
}

func TestWalkVisitsEachNodeOnceParentFirst(t *testing.T) {
	tree := New("test")
	tab, _ := tree.AddTab(GridID, "A", 12)
	row, _ := tree.AddRow(tab.ID)
	tree.AddChart(row.ID, 1, "x", 6, 50)
	tree.AddMarkdown(tab.ID, "## y", 6, 20)

	visited := make(map[string]int)
	for n := range tree.Walk() {
		visited[n.ID]++
		if parent, ok := tree.Parent(n.ID); ok {
			if visited[parent] == 0 {
				t.Errorf("node %s visited before its parent %s", n.ID, parent)
			}
		}
	}

	if len(visited) != tree.Len() {
		t.Errorf("visited %d nodes, want %d", len(visited), tree.Len())
	}
	for id, count := range visited {
		if count != 1 {
			t.Errorf("node %s visited %d times, want 1", id, count)
		}
	}
}

func TestWalkRestartable(t *testing.T) {
	tree := New("test")
	tree.AddTab(GridID, "A", 12)
	tree.AddTab(GridID, "B", 12)

	collect := func() []string {
		var ids []string
		for n := range tree.Walk() {
			ids = append(ids, n.ID)
		}
		return ids
	}

	first := collect()
	second := collect()
	if !slices.Equal(first, second) {
		t.Errorf("restarted walk = %v, want %v", second, first)
	}

	// Early break must not poison later traversals.
	for range tree.Walk() {
		break
	}
	if got := collect(); !slices.Equal(got, first) {
		t.Errorf("walk after early break = %v, want %v", got, first)
	}
}
