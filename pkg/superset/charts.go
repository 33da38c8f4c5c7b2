package superset

import (
	"context"
	"encoding/json"

	"github.com/dashforge/supergrid/pkg/chart"
	"github.com/dashforge/supergrid/pkg/errors"
)

// Chart is a saved visualization. Params and QueryContext hold the
// JSON documents Superset embeds as strings; [Chart.SetOptions] fills
// both from a typed visualization definition so they cannot drift
// apart.
type Chart struct {
	ID             int    `json:"id,omitempty"`
	SliceName      string `json:"slice_name"`
	Description    string `json:"description,omitempty"`
	VizType        string `json:"viz_type,omitempty"`
	DatasourceID   int    `json:"datasource_id,omitempty"`
	DatasourceType string `json:"datasource_type,omitempty"`
	CacheTimeout   int    `json:"cache_timeout,omitempty"`
	Params         string `json:"params,omitempty"`
	QueryContext   string `json:"query_context,omitempty"`

	// Dashboards lists the dashboards the chart appears on. The server
	// expands them to objects on reads and wants bare ids on writes,
	// which ObjectRef handles.
	Dashboards []ObjectRef `json:"dashboards,omitempty"`
}

// NewChart builds a chart named sliceName from a visualization
// definition bound to a datasource.
func NewChart(sliceName string, opt chart.Option, ds chart.Datasource) (*Chart, error) {
	if err := errors.ValidateSliceName(sliceName); err != nil {
		return nil, err
	}
	ch := &Chart{SliceName: sliceName}
	if err := ch.SetOptions(opt, ds); err != nil {
		return nil, err
	}
	return ch, nil
}

// SetOptions renders opt into the chart's params and query context and
// aligns the datasource columns with it. Superset validates the two
// documents against each other, so they are always written together.
func (ch *Chart) SetOptions(opt chart.Option, ds chart.Datasource) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateVizType(opt.VizType()); err != nil {
		return err
	}
	params, err := chart.Params(opt, ds)
	if err != nil {
		return err
	}
	qc, err := chart.QueryContext(opt, ds)
	if err != nil {
		return err
	}
	ch.Params = params
	ch.QueryContext = qc
	ch.VizType = opt.VizType()
	ch.DatasourceID = ds.ID
	ch.DatasourceType = ds.Type
	return nil
}

// AttachToDashboard links the chart to a dashboard id. The link is
// sent with the next Create or Update. Attaching twice is a no-op.
func (ch *Chart) AttachToDashboard(dashboardID int) {
	for _, ref := range ch.Dashboards {
		if int(ref) == dashboardID {
			return
		}
	}
	ch.Dashboards = append(ch.Dashboards, ObjectRef(dashboardID))
}

// ChartService manages charts through the REST API.
type ChartService struct {
	service
}

// Find lists charts matching the query and reports the total match
// count across all pages.
func (s *ChartService) Find(ctx context.Context, q Query) ([]*Chart, int, error) {
	raws, count, err := s.find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	charts := make([]*Chart, 0, len(raws))
	for _, raw := range raws {
		var ch Chart
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode chart list entry")
		}
		charts = append(charts, &ch)
	}
	return charts, count, nil
}

// FindOne returns the single chart matching the query. Zero matches
// and several matches are both errors.
func (s *ChartService) FindOne(ctx context.Context, q Query) (*Chart, error) {
	matches, _, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no chart matched the query")
	}
	if len(matches) > 1 {
		return nil, errors.New(errors.ErrCodeMultipleFound, "%d charts matched the query, expected one", len(matches))
	}
	return matches[0], nil
}

// GetByName returns the chart with the given slice name. Slice names
// are unique in practice but not enforced, so several matches is an
// error.
func (s *ChartService) GetByName(ctx context.Context, sliceName string) (*Chart, error) {
	return s.FindOne(ctx, Query{Filters: []Filter{Eq("slice_name", sliceName)}})
}

// Get retrieves one chart by id.
func (s *ChartService) Get(ctx context.Context, id int) (*Chart, error) {
	var ch Chart
	if err := s.fetch(ctx, id, &ch); err != nil {
		return nil, err
	}
	if ch.ID == 0 {
		ch.ID = id
	}
	return &ch, nil
}

// Create saves a new chart and fills in its id.
func (s *ChartService) Create(ctx context.Context, ch *Chart) (int, error) {
	id, err := s.create(ctx, ch)
	if err != nil {
		return 0, err
	}
	ch.ID = id
	return id, nil
}

// Update overwrites an existing chart.
func (s *ChartService) Update(ctx context.Context, ch *Chart) error {
	if ch.ID == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "chart has no id, create it first")
	}
	return s.update(ctx, ch.ID, ch)
}
