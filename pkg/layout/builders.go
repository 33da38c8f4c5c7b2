package layout

// Convenience builders construct a validated position, generate an
// identifier, and add the node in one step. They return the stored node so
// callers can nest further children under its ID.

// AddTabs adds a tab container under the given parent.
func (t *Tree) AddTabs(parentID string) (*Node, error) {
	return t.add(parentID, NewTabs())
}

// AddTab adds a named tab under the given parent, usually a tab container.
func (t *Tree) AddTab(parentID, label string, width int) (*Node, error) {
	p, err := NewTab(label, width)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

// AddRow adds a transparent row under the given parent.
func (t *Tree) AddRow(parentID string) (*Node, error) {
	return t.add(parentID, NewRow())
}

// AddColumn adds a column of the given width under the given parent.
func (t *Tree) AddColumn(parentID string, width int) (*Node, error) {
	p, err := NewColumn(width)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

// AddChart adds a chart placement under the given parent. The chart ID and
// slice name reference the remote chart this node displays.
func (t *Tree) AddChart(parentID string, chartID int, sliceName string, width, height int) (*Node, error) {
	p, err := NewChart(chartID, sliceName, width, height)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

// AddMarkdown adds a markdown block under the given parent.
func (t *Tree) AddMarkdown(parentID, code string, width, height int) (*Node, error) {
	p, err := NewMarkdown(code, width, height)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

// AddDivider adds a horizontal divider under the given parent.
func (t *Tree) AddDivider(parentID string, width int) (*Node, error) {
	p, err := NewDivider(width)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

// AddHeader adds a section header under the given parent.
func (t *Tree) AddHeader(parentID, text string) (*Node, error) {
	p, err := NewHeader(text)
	if err != nil {
		return nil, err
	}
	return t.add(parentID, p)
}

func (t *Tree) add(parentID string, p Position) (*Node, error) {
	n := Node{ID: NewID(p.Kind()), Kind: p.Kind(), Position: p}
	if err := t.AddChild(parentID, n); err != nil {
		return nil, err
	}
	return t.nodes[n.ID], nil
}
