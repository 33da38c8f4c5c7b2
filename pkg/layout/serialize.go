package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrSerialize is returned by [Marshal] when the tree violates
	// referential integrity: a child identifier that does not resolve, an
	// identifier claimed by two parents, or an unreachable node. These
	// states cannot be produced through [Tree.AddChild]; serialization
	// re-checks them before emitting anything. The error is fatal to the
	// attempt and not retriable without fixing the tree.
	ErrSerialize = errors.New("layout serialization failed")

	// ErrInvalidLayout is returned by [Unmarshal] when a document does not
	// conform to the layout format: wrong version marker, missing reserved
	// records, dangling child references, or unknown node types.
	ErrInvalidLayout = errors.New("invalid layout document")
)

// record is the flat wire form of a single node: its type tag, meta fields,
// and adjacency by identifier reference rather than nesting.
type record struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Children []string       `json:"children"`
	Meta     map[string]any `json:"meta,omitempty"`
	Parents  []string       `json:"parents,omitempty"`
}

// Marshal flattens the tree into the destination service's keyed adjacency
// document. Each node becomes a record keyed by its identifier; the root is
// registered under the reserved root key, and the version marker and header
// record are added. The output is deterministic: serializing the same tree
// repeatedly produces byte-identical documents (top-level keys are emitted
// in sorted order, child lists keep insertion order).
func Marshal(t *Tree) ([]byte, error) {
	out, err := flatten(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Write encodes the tree as an indented layout document and writes it to w.
// The output can be re-read with [Read] and is accepted verbatim by the
// destination service.
func Write(t *Tree, w io.Writer) error {
	out, err := flatten(t)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func flatten(t *Tree) (map[string]any, error) {
	if err := revalidate(t); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(t.nodes)+2)
	out[VersionKey] = Version
	out[HeaderID] = record{
		Type: string(KindHeader),
		ID:   HeaderID,
		Meta: map[string]any{"text": t.title},
	}

	for n := range t.Walk() {
		if err := n.Position.Validate(); err != nil {
			return nil, fmt.Errorf("node %q has invalid position (%v): %w", n.ID, err, ErrSerialize)
		}
		children := t.children[n.ID]
		rec := record{
			Type:     string(n.Kind),
			ID:       n.ID,
			Children: make([]string, 0, len(children)),
			Meta:     n.Position.Record(),
			Parents:  t.ancestors(n.ID),
		}
		rec.Children = append(rec.Children, children...)
		out[n.ID] = rec
	}
	return out, nil
}

// revalidate re-checks the invariants AddChild enforces: every child
// reference resolves, no identifier is claimed by two parents, and every
// node is reachable from the root.
func revalidate(t *Tree) error {
	claimed := make(map[string]string, len(t.nodes))
	for parentID, children := range t.children {
		for _, childID := range children {
			if _, ok := t.nodes[childID]; !ok {
				return fmt.Errorf("node %q references missing child %q: %w", parentID, childID, ErrSerialize)
			}
			if prev, taken := claimed[childID]; taken {
				return fmt.Errorf("node %q claimed by parents %q and %q: %w", childID, prev, parentID, ErrSerialize)
			}
			claimed[childID] = parentID
		}
	}

	reachable := 0
	for range t.Walk() {
		reachable++
	}
	if reachable != len(t.nodes) {
		return fmt.Errorf("%d of %d nodes unreachable from root: %w", len(t.nodes)-reachable, len(t.nodes), ErrSerialize)
	}
	return nil
}

// metaFields is the superset of kind-specific meta keys used when decoding.
type metaFields struct {
	Text       string `json:"text"`
	Code       string `json:"code"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ChartID    int    `json:"chartId"`
	SliceName  string `json:"sliceName"`
	Background string `json:"background"`
}

// Unmarshal parses a layout document back into a tree. It validates the
// version marker and the reserved root record, then rebuilds the tree
// top-down so that every structural invariant (referential closure, single
// parenthood, kind acceptance) is re-enforced by [Tree.AddChild].
//
// Documents written by other clients may omit geometry the tree model
// requires; missing widths default to the full grid width and missing row
// backgrounds to transparent. Records not reachable from the root are
// rejected.
func Unmarshal(data []byte) (*Tree, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	version, ok := raw[VersionKey]
	if !ok {
		return nil, fmt.Errorf("missing %s: %w", VersionKey, ErrInvalidLayout)
	}
	var v string
	if err := json.Unmarshal(version, &v); err != nil || v != Version {
		return nil, fmt.Errorf("unsupported layout version %s: %w", version, ErrInvalidLayout)
	}

	recs := make(map[string]record, len(raw))
	for key, msg := range raw {
		if key == VersionKey {
			continue
		}
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}
		if rec.ID != "" && rec.ID != key {
			return nil, fmt.Errorf("record %q carries mismatched id %q: %w", key, rec.ID, ErrInvalidLayout)
		}
		recs[key] = rec
	}

	root, ok := recs[RootID]
	if !ok {
		return nil, fmt.Errorf("missing %s record: %w", RootID, ErrInvalidLayout)
	}
	if root.Type != string(KindRoot) {
		return nil, fmt.Errorf("root record has type %q: %w", root.Type, ErrInvalidLayout)
	}

	title := ""
	if header, ok := recs[HeaderID]; ok {
		if text, ok := header.Meta["text"].(string); ok {
			title = text
		}
	}

	t := New(title)
	seen := map[string]bool{RootID: true, HeaderID: true}

	var attach func(parentID string, childIDs []string) error
	attach = func(parentID string, childIDs []string) error {
		for _, id := range childIDs {
			rec, ok := recs[id]
			if !ok {
				return fmt.Errorf("node %q references missing child %q: %w", parentID, id, ErrInvalidLayout)
			}
			seen[id] = true
			if id == GridID {
				// The grid already exists; only its children need attaching.
				if rec.Type != string(KindGrid) {
					return fmt.Errorf("grid record has type %q: %w", rec.Type, ErrInvalidLayout)
				}
				if err := attach(GridID, rec.Children); err != nil {
					return err
				}
				continue
			}
			pos, err := decodePosition(rec)
			if err != nil {
				return err
			}
			if err := t.AddChild(parentID, Node{ID: id, Kind: Kind(rec.Type), Position: pos}); err != nil {
				return fmt.Errorf("record %q: %w", id, err)
			}
			if err := attach(id, rec.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := attach(RootID, root.Children); err != nil {
		return nil, err
	}

	for id := range recs {
		if !seen[id] {
			return nil, fmt.Errorf("record %q not reachable from root: %w", id, ErrInvalidLayout)
		}
	}
	return t, nil
}

// Read decodes a layout document from r into a tree. Read does not close r.
func Read(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Unmarshal(data)
}

func decodePosition(rec record) (Position, error) {
	var m metaFields
	if rec.Meta != nil {
		buf, err := json.Marshal(rec.Meta)
		if err != nil {
			return nil, fmt.Errorf("record %q meta: %w", rec.ID, err)
		}
		if err := json.Unmarshal(buf, &m); err != nil {
			return nil, fmt.Errorf("record %q meta: %w", rec.ID, err)
		}
	}
	if m.Width == 0 {
		m.Width = GridColumns
	}
	if m.Background == "" {
		m.Background = BackgroundTransparent
	}

	switch Kind(rec.Type) {
	case KindTabs:
		return NewTabs(), nil
	case KindTab:
		return TabPosition{Label: m.Text, Width: m.Width}, nil
	case KindRow:
		return RowPosition{Background: m.Background}, nil
	case KindColumn:
		return ColumnPosition{Width: m.Width, Background: m.Background}, nil
	case KindChart:
		return ChartPosition{Width: m.Width, Height: m.Height, ChartID: m.ChartID, SliceName: m.SliceName}, nil
	case KindMarkdown:
		return MarkdownPosition{Width: m.Width, Height: m.Height, Code: m.Code}, nil
	case KindDivider:
		return DividerPosition{Width: m.Width}, nil
	case KindHeader:
		return HeaderPosition{Text: m.Text}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q: %w", rec.Type, ErrInvalidLayout)
	}
}
