package layout

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"unicode"
)

var (
	// ErrInvalidNodeID is returned by [Tree.AddChild] when the node ID is
	// empty or contains control characters. All nodes must have printable,
	// non-empty identifiers because they become JSON object keys.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrDuplicateID is returned by [Tree.AddChild] when a node with the
	// same ID already exists in the tree. Node IDs must be unique across
	// the whole tree; re-adding an existing node under a different parent
	// is rejected rather than treated as a move.
	ErrDuplicateID = errors.New("duplicate node ID")

	// ErrNodeNotFound is returned by [Tree.AddChild] and [Tree.FindNode]
	// when the referenced node does not exist. Nothing is created silently.
	ErrNodeNotFound = errors.New("node not found")

	// ErrChildNotAllowed is returned by [Tree.AddChild] when the parent's
	// kind does not allow including children of the node's kind, e.g. any
	// child under a chart or divider.
	ErrChildNotAllowed = errors.New("node kind does not allow this child")
)

// Kind is the type tag of a layout node. Kinds serialize directly as the
// destination service's type strings.
type Kind string

// Node kinds understood by the destination service's layout format.
const (
	KindRoot     Kind = "ROOT"
	KindGrid     Kind = "GRID"
	KindHeader   Kind = "HEADER"
	KindTabs     Kind = "TABS"
	KindTab      Kind = "TAB"
	KindRow      Kind = "ROW"
	KindColumn   Kind = "COLUMN"
	KindChart    Kind = "CHART"
	KindMarkdown Kind = "MARKDOWN"
	KindDivider  Kind = "DIVIDER"
)

// allowedChildren defines which node kinds a parent kind accepts.
// Kinds absent from the map (chart, markdown, divider, header) are leaves.
var allowedChildren = map[Kind][]Kind{
	KindRoot:   {KindGrid},
	KindGrid:   {KindTabs, KindTab, KindRow, KindColumn, KindChart, KindMarkdown, KindDivider, KindHeader},
	KindTabs:   {KindTab},
	KindTab:    {KindTabs, KindRow, KindColumn, KindChart, KindMarkdown, KindDivider, KindHeader},
	KindRow:    {KindColumn, KindChart, KindMarkdown},
	KindColumn: {KindRow, KindChart, KindMarkdown},
}

// Accepts reports whether the kind allows children of the given kind.
func (k Kind) Accepts(child Kind) bool {
	return slices.Contains(allowedChildren[k], child)
}

// IsLeaf reports whether the kind never accepts children.
func (k Kind) IsLeaf() bool { return len(allowedChildren[k]) == 0 }

// Node represents a single element of a dashboard layout: its identifier,
// kind, and position metadata. Parent-child structure is held by the owning
// [Tree], not on the node itself, so a node can never smuggle in children
// that bypass the tree's invariants.
//
// The zero value is not usable - ID and Position must be set before adding
// to a tree.
type Node struct {
	ID       string   // Unique identifier (becomes the serialized record key)
	Kind     Kind     // Type tag (derived from Position when empty)
	Position Position // Placement and sizing metadata
}

// Tree is an ordered, rooted tree describing a dashboard's visual layout.
// Nodes are held in an arena indexed by identifier, with children stored as
// ordered identifier lists - children reference, they never embed. The tree
// is built once per dashboard-creation run, serialized, and discarded.
//
// The zero value is not usable - use [New] to create a tree with its
// reserved root and grid nodes. Tree is not safe for concurrent use; an
// instance is exclusively owned by the caller that constructs it.
type Tree struct {
	title    string
	nodes    map[string]*Node
	children map[string][]string // nodeID -> ordered child IDs
	parent   map[string]string   // nodeID -> parent ID ("" for root)
}

// New creates a layout tree with the reserved root and grid nodes already in
// place. The title becomes the dashboard header when the tree is serialized.
// The root is established here and cannot be replaced afterwards, only
// extended with children; user content attaches under [Tree.Grid].
func New(title string) *Tree {
	t := &Tree{
		title:    title,
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parent:   make(map[string]string),
	}
	t.nodes[RootID] = &Node{ID: RootID, Kind: KindRoot, Position: reservedPosition{kind: KindRoot}}
	t.nodes[GridID] = &Node{ID: GridID, Kind: KindGrid, Position: reservedPosition{kind: KindGrid}}
	t.children[RootID] = []string{GridID}
	t.parent[GridID] = RootID
	return t
}

// Title returns the dashboard title carried by the tree.
func (t *Tree) Title() string { return t.title }

// Root returns the reserved root node.
func (t *Tree) Root() *Node { return t.nodes[RootID] }

// Grid returns the reserved grid node. User content hangs off the grid.
func (t *Tree) Grid() *Node { return t.nodes[GridID] }

// Len returns the number of nodes in the tree, including the reserved root
// and grid nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Has reports whether a node with the given ID exists in the tree.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// AddChild validates and appends a node under the given parent. It returns
// ErrNodeNotFound if the parent is not in the tree, ErrDuplicateID if the
// node's ID is already taken, ErrChildNotAllowed if the parent's kind does
// not accept the node's kind, ErrInvalidNodeID for an unusable identifier,
// or ErrInvalidPosition if the node's position fails validation.
//
// Children added to the root attach under the grid: on the wire the grid is
// the root's only direct child, so the two act as one logical root here.
//
// All checks run before any mutation: on error the tree is unchanged. On
// success the node ID is appended to the parent's ordered child list and
// the node enters the identifier index.
func (t *Tree) AddChild(parentID string, n Node) error {
	if parentID == RootID {
		parentID = GridID
	}
	if err := validateNodeID(n.ID); err != nil {
		return err
	}
	if n.Position == nil {
		return fmt.Errorf("node %q has no position: %w", n.ID, ErrInvalidPosition)
	}
	if n.Kind == "" {
		n.Kind = n.Position.Kind()
	}
	if n.Kind != n.Position.Kind() {
		return fmt.Errorf("node %q kind %s does not match position kind %s: %w",
			n.ID, n.Kind, n.Position.Kind(), ErrInvalidPosition)
	}
	if err := n.Position.Validate(); err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return fmt.Errorf("parent %q: %w", parentID, ErrNodeNotFound)
	}
	if _, exists := t.nodes[n.ID]; exists {
		return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
	}
	if !parent.Kind.Accepts(n.Kind) {
		return fmt.Errorf("%s %q cannot contain %s: %w", parent.Kind, parentID, n.Kind, ErrChildNotAllowed)
	}

	node := &n
	t.nodes[node.ID] = node
	t.children[parentID] = append(t.children[parentID], node.ID)
	t.parent[node.ID] = parentID
	return nil
}

// FindNode returns the node with the given ID, or ErrNodeNotFound.
// The returned pointer refers to the node held by the tree.
func (t *Tree) FindNode(id string) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// Children returns the ordered child IDs of the node.
// Returns nil if the node has no children or doesn't exist. The returned
// slice should not be modified - use it as a read-only view.
func (t *Tree) Children(id string) []string { return t.children[id] }

// Parent returns the parent ID of the node and true, or "" and false for
// the root or an unknown node.
func (t *Tree) Parent(id string) (string, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Walk returns a lazy depth-first pre-order traversal of the tree in
// child-insertion order: a node is always visited before its children, and
// siblings in the order they were added. Each call yields a fresh
// traversal, and the sequence is finite because no operation can create a
// back-edge.
func (t *Tree) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var dfs func(id string) bool
		dfs = func(id string) bool {
			n, ok := t.nodes[id]
			if !ok {
				return true
			}
			if !yield(n) {
				return false
			}
			for _, child := range t.children[id] {
				if !dfs(child) {
					return false
				}
			}
			return true
		}
		dfs(RootID)
	}
}

// ancestors returns the parent chain of the node, root first.
func (t *Tree) ancestors(id string) []string {
	var chain []string
	for {
		p, ok := t.parent[id]
		if !ok {
			break
		}
		chain = append(chain, p)
		id = p
	}
	slices.Reverse(chain)
	return chain
}

func validateNodeID(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if len(id) > 256 {
		return fmt.Errorf("node ID too long: %w", ErrInvalidNodeID)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("node ID contains control characters: %w", ErrInvalidNodeID)
		}
	}
	return nil
}
