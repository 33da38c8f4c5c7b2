package chart

import (
	"encoding/json"
	"fmt"
)

// Option describes one chart visualization: its type, the fields stored
// in the chart's params blob, and the queries the server runs for it.
type Option interface {
	// VizType returns the Superset visualization type identifier.
	VizType() string

	// Validate checks that the option describes a renderable chart.
	Validate() error

	// FormData returns the params document for the given datasource.
	FormData(ds Datasource) (map[string]any, error)

	// Queries returns the query objects executed for the chart.
	Queries() ([]Query, error)
}

// Legend styles and placements shared by the visualization options.
const (
	LegendScroll = "scroll"
	LegendPlain  = "plain"

	LegendTop    = "top"
	LegendBottom = "bottom"
	LegendLeft   = "left"
	LegendRight  = "right"
)

// Adaptive display formats, the defaults for numbers and dates.
const (
	FormatSmartNumber = "SMART_NUMBER"
	FormatSmartDate   = "smart_date"
)

const defaultColorScheme = "supersetColors"

const (
	resultFormatJSON = "json"
	resultTypeFull   = "full"
)

// queryContext is the document POSTed to /api/v1/chart/data and stored
// in a chart's query_context column.
type queryContext struct {
	Datasource   Datasource     `json:"datasource"`
	Force        bool           `json:"force"`
	Queries      []Query        `json:"queries"`
	FormData     map[string]any `json:"form_data"`
	ResultFormat string         `json:"result_format"`
	ResultType   string         `json:"result_type"`
}

// Params renders the option as the JSON params document stored on a
// chart. Output is deterministic for a given option and datasource.
func Params(opt Option, ds Datasource) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}
	fd, err := opt.FormData(ds)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(fd)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(raw), nil
}

// QueryContext renders the option as the JSON query context document
// stored on a chart. Output is deterministic for a given option and
// datasource.
func QueryContext(opt Option, ds Datasource) (string, error) {
	if err := ds.Validate(); err != nil {
		return "", err
	}
	fd, err := opt.FormData(ds)
	if err != nil {
		return "", err
	}
	queries, err := opt.Queries()
	if err != nil {
		return "", err
	}
	qc := queryContext{
		Datasource:   ds,
		Queries:      queries,
		FormData:     fd,
		ResultFormat: resultFormatJSON,
		ResultType:   resultTypeFull,
	}
	raw, err := json.Marshal(qc)
	if err != nil {
		return "", fmt.Errorf("marshal query context: %w", err)
	}
	return string(raw), nil
}

// formData marshals the option through its JSON tags and injects the
// viz type and datasource UID, the two keys every params document has.
func formData(opt Option, ds Datasource) (map[string]any, error) {
	raw, err := json.Marshal(opt)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}
	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal form data: %w", err)
	}
	m["viz_type"] = opt.VizType()
	m["datasource"] = ds.UID()
	return m, nil
}
