package superset

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/dashforge/supergrid/pkg/errors"
	"github.com/dashforge/supergrid/pkg/layout"
)

// Dashboard is a collection of charts arranged on a grid. The layout
// and display metadata travel as JSON documents embedded in string
// fields; use [Dashboard.Layout] and [Dashboard.Metadata] instead of
// touching PositionJSON and JSONMetadata directly.
type Dashboard struct {
	ID             int    `json:"id,omitempty"`
	DashboardTitle string `json:"dashboard_title"`
	Slug           string `json:"slug,omitempty"`
	Published      bool   `json:"published"`
	CSS            string `json:"css,omitempty"`
	JSONMetadata   string `json:"json_metadata,omitempty"`
	PositionJSON   string `json:"position_json,omitempty"`

	Owners []ObjectRef `json:"owners,omitempty"`
	Roles  []ObjectRef `json:"roles,omitempty"`

	// Charts lists the slice names placed on the dashboard. The server
	// fills it on reads; it is never sent back.
	Charts []string `json:"charts,omitempty"`
}

// Default placement for charts added without explicit dimensions,
// matching what the dashboard UI uses when dropping a chart.
const (
	DefaultChartWidth  = 4
	DefaultChartHeight = 50
)

// Layout decodes the dashboard's position document into a layout tree.
// A dashboard that has never been arranged gets a fresh tree with only
// the reserved nodes.
func (d *Dashboard) Layout() (*layout.Tree, error) {
	if d.PositionJSON == "" {
		return layout.New(d.DashboardTitle), nil
	}
	t, err := layout.Unmarshal([]byte(d.PositionJSON))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dashboard layout")
	}
	return t, nil
}

// SetLayout stores the tree as the dashboard's position document.
func (d *Dashboard) SetLayout(t *layout.Tree) error {
	data, err := layout.Marshal(t)
	if err != nil {
		return err
	}
	d.PositionJSON = string(data)
	return nil
}

// Metadata decodes the dashboard's metadata document. A dashboard
// without one gets empty metadata.
func (d *Dashboard) Metadata() (*DashboardMetadata, error) {
	meta := &DashboardMetadata{}
	if d.JSONMetadata == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(d.JSONMetadata), meta); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dashboard metadata")
	}
	return meta, nil
}

// SetMetadata stores the metadata as the dashboard's metadata document.
func (d *Dashboard) SetMetadata(meta *DashboardMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "failed to encode dashboard metadata")
	}
	d.JSONMetadata = string(data)
	return nil
}

// AddChart places a saved chart on the dashboard: the layout gains a
// chart node and the metadata gains the cross-filter wiring the UI
// writes for new placements. The chart must have been created already
// so its id and slice name exist to reference. Pass zero dimensions
// for the default placement.
//
// New charts land under the last row of the grid when there is one,
// otherwise directly on the grid. Build the layout through
// [Dashboard.Layout] for anything more deliberate.
func (d *Dashboard) AddChart(ch *Chart, width, height int) error {
	if ch == nil || ch.ID == 0 {
		return errors.New(errors.ErrCodeInvalidChart, "chart must be created before it can be placed on a dashboard")
	}
	if width == 0 {
		width = DefaultChartWidth
	}
	if height == 0 {
		height = DefaultChartHeight
	}

	tree, err := d.Layout()
	if err != nil {
		return err
	}
	meta, err := d.Metadata()
	if err != nil {
		return err
	}

	parent := layout.GridID
	if kids := tree.Children(layout.GridID); len(kids) > 0 {
		last := kids[len(kids)-1]
		if n, err := tree.FindNode(last); err == nil && n.Kind == layout.KindRow {
			parent = last
		}
	}
	if _, err := tree.AddChart(parent, ch.ID, ch.SliceName, width, height); err != nil {
		return err
	}
	meta.AddChart(ch.ID)

	if err := d.SetLayout(tree); err != nil {
		return err
	}
	if err := d.SetMetadata(meta); err != nil {
		return err
	}
	if d.ID != 0 {
		ch.AttachToDashboard(d.ID)
	}
	return nil
}

// UpdateColors merges label colors into the dashboard metadata.
func (d *Dashboard) UpdateColors(colors map[string]string) error {
	meta, err := d.Metadata()
	if err != nil {
		return err
	}
	if meta.LabelColors == nil {
		meta.LabelColors = make(map[string]string, len(colors))
	}
	for label, color := range colors {
		meta.LabelColors[label] = color
	}
	return d.SetMetadata(meta)
}

// DashboardMetadata is the display configuration stored in a
// dashboard's json_metadata column. Anything not modeled here survives
// a round trip only if the caller re-reads before writing.
type DashboardMetadata struct {
	ColorScheme              string            `json:"color_scheme,omitempty"`
	RefreshFrequency         int               `json:"refresh_frequency"`
	SharedLabelColors        map[string]string `json:"shared_label_colors,omitempty"`
	ColorSchemeDomain        []string          `json:"color_scheme_domain,omitempty"`
	ExpandedSlices           map[string]bool   `json:"expanded_slices,omitempty"`
	LabelColors              map[string]string `json:"label_colors,omitempty"`
	TimedRefreshImmuneSlices []int             `json:"timed_refresh_immune_slices,omitempty"`
	CrossFiltersEnabled      bool              `json:"cross_filters_enabled"`

	// ChartConfiguration holds per-chart cross-filter settings keyed by
	// chart id rendered as a string, the way the UI stores them.
	ChartConfiguration       map[string]ChartConfiguration `json:"chart_configuration,omitempty"`
	GlobalChartConfiguration *GlobalChartConfiguration     `json:"global_chart_configuration,omitempty"`

	// DefaultFilters is a nested JSON document kept verbatim.
	DefaultFilters string `json:"default_filters,omitempty"`

	FilterScopes              json.RawMessage `json:"filter_scopes,omitempty"`
	NativeFilterConfiguration json.RawMessage `json:"native_filter_configuration,omitempty"`
}

// ChartConfiguration scopes cross filtering for one chart.
type ChartConfiguration struct {
	ID           int          `json:"id"`
	CrossFilters CrossFilters `json:"crossFilters"`
}

// CrossFilters lists which other charts a chart's cross filter reaches.
type CrossFilters struct {
	Scope         string `json:"scope"`
	ChartsInScope []int  `json:"chartsInScope"`
}

// GlobalChartConfiguration is the dashboard-wide cross-filter scope.
type GlobalChartConfiguration struct {
	Scope         GlobalChartScope `json:"scope"`
	ChartsInScope []int            `json:"chartsInScope"`
}

// GlobalChartScope roots the global scope in the layout tree.
type GlobalChartScope struct {
	RootPath []string `json:"rootPath"`
	Excluded []int    `json:"excluded"`
}

// AddChart registers a chart in the cross-filter configuration. The
// new chart's filter reaches every chart already in scope, and the
// global scope gains the new chart.
func (m *DashboardMetadata) AddChart(chartID int) {
	if m.GlobalChartConfiguration == nil {
		m.GlobalChartConfiguration = &GlobalChartConfiguration{
			Scope: GlobalChartScope{RootPath: []string{layout.RootID}, Excluded: []int{}},
		}
	}

	cfg := ChartConfiguration{
		ID:           chartID,
		CrossFilters: CrossFilters{Scope: "global", ChartsInScope: []int{}},
	}
	for _, other := range m.GlobalChartConfiguration.ChartsInScope {
		if other != chartID {
			cfg.CrossFilters.ChartsInScope = append(cfg.CrossFilters.ChartsInScope, other)
		}
	}

	if m.ChartConfiguration == nil {
		m.ChartConfiguration = make(map[string]ChartConfiguration)
	}
	m.ChartConfiguration[strconv.Itoa(chartID)] = cfg
	m.GlobalChartConfiguration.ChartsInScope = append(m.GlobalChartConfiguration.ChartsInScope, chartID)
}

// DashboardService manages dashboards through the REST API.
type DashboardService struct {
	service
}

// Find lists dashboards matching the query and reports the total match
// count across all pages.
func (s *DashboardService) Find(ctx context.Context, q Query) ([]*Dashboard, int, error) {
	raws, count, err := s.find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	dashboards := make([]*Dashboard, 0, len(raws))
	for _, raw := range raws {
		var d Dashboard
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dashboard list entry")
		}
		dashboards = append(dashboards, &d)
	}
	return dashboards, count, nil
}

// FindOne returns the single dashboard matching the query. Zero
// matches and several matches are both errors.
func (s *DashboardService) FindOne(ctx context.Context, q Query) (*Dashboard, error) {
	matches, _, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no dashboard matched the query")
	}
	if len(matches) > 1 {
		return nil, errors.New(errors.ErrCodeMultipleFound, "%d dashboards matched the query, expected one", len(matches))
	}
	return matches[0], nil
}

// Get retrieves one dashboard by id.
func (s *DashboardService) Get(ctx context.Context, id int) (*Dashboard, error) {
	var d Dashboard
	if err := s.fetch(ctx, id, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		d.ID = id
	}
	return &d, nil
}

// Create saves a new dashboard and fills in its id.
func (s *DashboardService) Create(ctx context.Context, d *Dashboard) (int, error) {
	id, err := s.create(ctx, d)
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

// Update overwrites an existing dashboard.
func (s *DashboardService) Update(ctx context.Context, d *Dashboard) error {
	if d.ID == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dashboard has no id, create it first")
	}
	return s.update(ctx, d.ID, d)
}

// Charts lists the charts placed on a dashboard.
func (s *DashboardService) Charts(ctx context.Context, dashboardID int) ([]*Chart, error) {
	var out struct {
		Result []json.RawMessage `json:"result"`
	}
	chartsURL := s.client.apiURL(s.endpoint, strconv.Itoa(dashboardID), "charts")
	if err := s.client.get(ctx, s.endpoint, chartsURL, &out); err != nil {
		return nil, err
	}
	charts := make([]*Chart, 0, len(out.Result))
	for _, raw := range out.Result {
		var ch Chart
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dashboard chart entry")
		}
		charts = append(charts, &ch)
	}
	return charts, nil
}
