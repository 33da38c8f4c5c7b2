package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned by position constructors and [Position.Validate]
// when a required field is missing or a geometry value is out of range.
// Invalid positions never reach a tree.
var ErrInvalidPosition = errors.New("invalid position")

// GridColumns is the width of the dashboard grid in columns.
// No element can be wider than this.
const GridColumns = 12

// Row background styles accepted by the destination service.
const (
	BackgroundTransparent = "BACKGROUND_TRANSPARENT"
	BackgroundWhite       = "BACKGROUND_WHITE"
)

// Position describes the placement and sizing metadata of a layout node,
// independent of its content. Implementations are immutable value types
// constructed through the New* functions, which validate required fields
// up front.
type Position interface {
	// Kind returns the node kind this position belongs to.
	Kind() Kind
	// Record returns the flat meta key-value structure expected by the
	// serializer. It is a pure function with no side effects.
	Record() map[string]any
	// Validate checks that required fields are present and geometry values
	// are in range. Constructors call this, but positions assembled as
	// struct literals are re-checked when added to a tree.
	Validate() error
}

// TabPosition places a named tab. Tabs carry a label and a width in grid
// columns.
type TabPosition struct {
	Label string
	Width int
}

// NewTab creates a validated tab position.
func NewTab(label string, width int) (TabPosition, error) {
	p := TabPosition{Label: label, Width: width}
	return p, p.Validate()
}

// Kind returns KindTab.
func (p TabPosition) Kind() Kind { return KindTab }

// Record returns the tab's meta fields.
func (p TabPosition) Record() map[string]any {
	return map[string]any{"text": p.Label, "width": p.Width}
}

// Validate checks the tab label and width.
func (p TabPosition) Validate() error {
	if p.Label == "" {
		return fmt.Errorf("tab label must not be empty: %w", ErrInvalidPosition)
	}
	return validateWidth(p.Width)
}

// TabsPosition places a tab container. The container itself carries no
// geometry; its children are the individual tabs.
type TabsPosition struct{}

// NewTabs creates a tab container position.
func NewTabs() TabsPosition { return TabsPosition{} }

// Kind returns KindTabs.
func (p TabsPosition) Kind() Kind { return KindTabs }

// Record returns nil; tab containers have no meta fields.
func (p TabsPosition) Record() map[string]any { return nil }

// Validate always succeeds for a tab container.
func (p TabsPosition) Validate() error { return nil }

// MarkdownPosition places a markdown block with its rendered size and
// source text.
type MarkdownPosition struct {
	Width  int
	Height int
	Code   string
}

// NewMarkdown creates a validated markdown position. The code may be empty;
// width and height are required.
func NewMarkdown(code string, width, height int) (MarkdownPosition, error) {
	p := MarkdownPosition{Width: width, Height: height, Code: code}
	return p, p.Validate()
}

// Kind returns KindMarkdown.
func (p MarkdownPosition) Kind() Kind { return KindMarkdown }

// Record returns the markdown block's meta fields.
func (p MarkdownPosition) Record() map[string]any {
	return map[string]any{"width": p.Width, "height": p.Height, "code": p.Code}
}

// Validate checks the markdown geometry.
func (p MarkdownPosition) Validate() error {
	if err := validateWidth(p.Width); err != nil {
		return err
	}
	return validateHeight(p.Height)
}

// DividerPosition places a horizontal divider. Dividers carry only a width.
type DividerPosition struct {
	Width int
}

// NewDivider creates a validated divider position.
func NewDivider(width int) (DividerPosition, error) {
	p := DividerPosition{Width: width}
	return p, p.Validate()
}

// Kind returns KindDivider.
func (p DividerPosition) Kind() Kind { return KindDivider }

// Record returns the divider's meta fields.
func (p DividerPosition) Record() map[string]any {
	return map[string]any{"width": p.Width}
}

// Validate checks the divider width.
func (p DividerPosition) Validate() error { return validateWidth(p.Width) }

// ChartPosition places a chart and holds its content reference: the remote
// slice identifier and display name. A zero ChartID is allowed while the
// remote chart does not exist yet; it must be resolved before the layout is
// pushed to the service.
type ChartPosition struct {
	Width     int
	Height    int
	ChartID   int
	SliceName string
}

// NewChart creates a validated chart position.
func NewChart(chartID int, sliceName string, width, height int) (ChartPosition, error) {
	p := ChartPosition{Width: width, Height: height, ChartID: chartID, SliceName: sliceName}
	return p, p.Validate()
}

// Kind returns KindChart.
func (p ChartPosition) Kind() Kind { return KindChart }

// Record returns the chart's meta fields. The slice name is included only
// when set.
func (p ChartPosition) Record() map[string]any {
	m := map[string]any{"width": p.Width, "height": p.Height, "chartId": p.ChartID}
	if p.SliceName != "" {
		m["sliceName"] = p.SliceName
	}
	return m
}

// Validate checks the chart geometry and content reference.
func (p ChartPosition) Validate() error {
	if p.ChartID < 0 {
		return fmt.Errorf("chart ID must not be negative: %w", ErrInvalidPosition)
	}
	if err := validateWidth(p.Width); err != nil {
		return err
	}
	return validateHeight(p.Height)
}

// RowPosition places a horizontal row that groups charts, markdown blocks,
// and columns.
type RowPosition struct {
	Background string
}

// NewRow creates a row position with a transparent background.
func NewRow() RowPosition {
	return RowPosition{Background: BackgroundTransparent}
}

// Kind returns KindRow.
func (p RowPosition) Kind() Kind { return KindRow }

// Record returns the row's meta fields.
func (p RowPosition) Record() map[string]any {
	return map[string]any{"background": p.Background}
}

// Validate checks the row background style.
func (p RowPosition) Validate() error { return validateBackground(p.Background) }

// ColumnPosition places a vertical column inside a row.
type ColumnPosition struct {
	Width      int
	Background string
}

// NewColumn creates a validated column position with a transparent background.
func NewColumn(width int) (ColumnPosition, error) {
	p := ColumnPosition{Width: width, Background: BackgroundTransparent}
	return p, p.Validate()
}

// Kind returns KindColumn.
func (p ColumnPosition) Kind() Kind { return KindColumn }

// Record returns the column's meta fields.
func (p ColumnPosition) Record() map[string]any {
	return map[string]any{"width": p.Width, "background": p.Background}
}

// Validate checks the column width and background style.
func (p ColumnPosition) Validate() error {
	if err := validateWidth(p.Width); err != nil {
		return err
	}
	return validateBackground(p.Background)
}

// HeaderPosition places a section header inside the grid. This is distinct
// from the reserved dashboard header, which the serializer derives from the
// tree title.
type HeaderPosition struct {
	Text string
}

// NewHeader creates a validated section header position.
func NewHeader(text string) (HeaderPosition, error) {
	p := HeaderPosition{Text: text}
	return p, p.Validate()
}

// Kind returns KindHeader.
func (p HeaderPosition) Kind() Kind { return KindHeader }

// Record returns the header's meta fields.
func (p HeaderPosition) Record() map[string]any {
	return map[string]any{"text": p.Text}
}

// Validate checks the header text.
func (p HeaderPosition) Validate() error {
	if p.Text == "" {
		return fmt.Errorf("header text must not be empty: %w", ErrInvalidPosition)
	}
	return nil
}

// reservedPosition backs the ROOT and GRID nodes created at tree
// construction. It carries no meta fields and never fails validation.
type reservedPosition struct {
	kind Kind
}

func (p reservedPosition) Kind() Kind             { return p.kind }
func (p reservedPosition) Record() map[string]any { return nil }
func (p reservedPosition) Validate() error        { return nil }

func validateWidth(w int) error {
	if w <= 0 {
		return fmt.Errorf("width must be positive: %w", ErrInvalidPosition)
	}
	if w > GridColumns {
		return fmt.Errorf("width %d exceeds grid width %d: %w", w, GridColumns, ErrInvalidPosition)
	}
	return nil
}

func validateHeight(h int) error {
	if h <= 0 {
		return fmt.Errorf("height must be positive: %w", ErrInvalidPosition)
	}
	return nil
}

func validateBackground(bg string) error {
	if bg != BackgroundTransparent && bg != BackgroundWhite {
		return fmt.Errorf("unknown background style %q: %w", bg, ErrInvalidPosition)
	}
	return nil
}
