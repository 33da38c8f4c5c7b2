// Package layout provides the dashboard layout tree and its wire
// serialization for Apache Superset's position format.
//
// # Overview
//
// Superset stores a dashboard's visual arrangement as a flat JSON object:
// one record per element, keyed by identifier, with parent-child structure
// expressed through ordered identifier lists. This package models that
// structure as an ordered, rooted tree built incrementally by client code,
// and converts it to and from the flat wire form.
//
// The tree is an arena: nodes live in an identifier index, and children are
// ordered identifier slices rather than embedded objects. This keeps
// ownership unambiguous and makes serialization a pure function over the
// arena.
//
// # Basic Usage
//
// Create a tree with [New], attach content with the Add* builders (or
// [Tree.AddChild] for full control over identifiers), and serialize with
// [Marshal]:
//
//	t := layout.New("Sales Overview")
//	tab, _ := t.AddTab(t.Grid().ID, "Revenue", 12)
//	row, _ := t.AddRow(tab.ID)
//	t.AddChart(row.ID, 42, "Revenue by Region", 6, 50)
//	t.AddMarkdown(row.ID, "## Notes", 6, 50)
//	doc, err := layout.Marshal(t)
//
// The resulting document is deterministic: the same tree always serializes
// to byte-identical output, so automated redeploys never produce spurious
// visual diffs.
//
// # Positions
//
// Every node carries a [Position], an immutable value describing placement
// and sizing for its kind: [TabPosition], [RowPosition], [ColumnPosition],
// [ChartPosition], [MarkdownPosition], [DividerPosition], [HeaderPosition].
// Constructors validate required fields up front, so invalid positions
// never reach a tree.
//
// # Invariants
//
// [Tree.AddChild] enforces the structural invariants before any mutation:
// identifiers are unique across the whole tree, every node has exactly one
// parent, and a parent's kind must accept the child's kind. Violations fail
// with [ErrDuplicateID], [ErrNodeNotFound], or [ErrChildNotAllowed] and
// leave the tree untouched. [Marshal] re-checks referential integrity and
// fails with [ErrSerialize] if the arena was corrupted.
//
// # Reserved Records
//
// The wire format reserves a handful of identifiers: [RootID] for the entry
// point, [GridID] for the content container, [HeaderID] for the dashboard
// title, and [VersionKey] for the format version marker. [New] creates the
// root and grid; the serializer derives the header from the tree title.
//
// # Concurrency
//
// Tree instances are not safe for concurrent use. A tree is exclusively
// owned by the caller that constructs it, built in one logical sequence of
// AddChild calls, serialized, and discarded.
package layout
