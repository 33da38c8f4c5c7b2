package chart

import "github.com/dashforge/supergrid/pkg/errors"

// QueryMode selects how a table chart reads its data.
type QueryMode string

const (
	// QueryModeAggregate groups rows and computes metrics.
	QueryModeAggregate QueryMode = "aggregate"
	// QueryModeRaw returns individual records from the listed columns.
	QueryModeRaw QueryMode = "raw"
)

// TableOption configures a data table chart. Aggregate tables group by
// GroupBy and compute Metrics; raw tables list AllColumns verbatim.
type TableOption struct {
	QueryMode QueryMode `json:"query_mode"`

	Metrics []Metric `json:"metrics"`
	GroupBy []string `json:"groupby"`

	// PercentMetrics are shown as percentages of their column total.
	PercentMetrics []Metric `json:"percent_metrics"`

	// AllColumns is the column list for raw mode.
	AllColumns []string `json:"all_columns"`

	Filters []Filter `json:"adhoc_filters"`

	RowLimit  int  `json:"row_limit"`
	OrderDesc bool `json:"order_desc"`

	// ServerPageLength is the rows per page under server-side pagination.
	ServerPageLength int  `json:"server_page_length"`
	ServerPagination bool `json:"server_pagination"`

	IncludeSearch bool `json:"include_search"`
	ShowCellBars  bool `json:"show_cell_bars"`

	// ColorPN colors positive and negative numbers differently.
	ColorPN bool `json:"color_pn"`

	// ColumnConfig holds per-column display overrides keyed by column name.
	ColumnConfig map[string]any `json:"column_config"`

	Dashboards    []int          `json:"dashboards,omitempty"`
	ExtraFormData map[string]any `json:"extra_form_data"`
}

const defaultTableRowLimit = 1000

func newTableDefaults() *TableOption {
	return &TableOption{
		Metrics:          []Metric{},
		GroupBy:          []string{},
		PercentMetrics:   []Metric{},
		AllColumns:       []string{},
		Filters:          []Filter{},
		RowLimit:         defaultTableRowLimit,
		OrderDesc:        true,
		ServerPageLength: 10,
		ShowCellBars:     true,
		ColorPN:          true,
		ColumnConfig:     map[string]any{},
		ExtraFormData:    map[string]any{},
	}
}

// NewTable returns an aggregate table of metrics grouped by the given
// columns.
func NewTable(metrics []Metric, groupby ...string) *TableOption {
	o := newTableDefaults()
	o.QueryMode = QueryModeAggregate
	o.Metrics = append(o.Metrics, metrics...)
	o.GroupBy = append(o.GroupBy, groupby...)
	return o
}

// NewRawTable returns a raw record table listing the given columns.
func NewRawTable(columns ...string) *TableOption {
	o := newTableDefaults()
	o.QueryMode = QueryModeRaw
	o.AllColumns = append(o.AllColumns, columns...)
	return o
}

// VizType implements [Option].
func (o *TableOption) VizType() string { return "table" }

// Validate implements [Option].
func (o *TableOption) Validate() error {
	switch o.QueryMode {
	case QueryModeAggregate:
		if len(o.Metrics) == 0 {
			return errors.New(errors.ErrCodeInvalidChart, "aggregate table requires at least one metric")
		}
		for _, m := range o.Metrics {
			if err := m.Validate(); err != nil {
				return err
			}
		}
		for _, m := range o.PercentMetrics {
			if err := m.Validate(); err != nil {
				return err
			}
		}
	case QueryModeRaw:
		if len(o.AllColumns) == 0 {
			return errors.New(errors.ErrCodeInvalidChart, "raw table requires at least one column")
		}
	default:
		return errors.New(errors.ErrCodeInvalidChart, "unknown query mode %q", o.QueryMode)
	}
	if o.RowLimit <= 0 {
		return errors.New(errors.ErrCodeInvalidChart, "row limit must be positive, got %d", o.RowLimit)
	}
	return validateFilters(o.Filters)
}

// FormData implements [Option].
func (o *TableOption) FormData(ds Datasource) (map[string]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return formData(o, ds)
}

// Queries implements [Option].
func (o *TableOption) Queries() ([]Query, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := newQuery()
	q.RowLimit = o.RowLimit
	q.OrderDesc = o.OrderDesc
	switch o.QueryMode {
	case QueryModeRaw:
		q.Columns = append(q.Columns, o.AllColumns...)
	default:
		q.Columns = append(q.Columns, o.GroupBy...)
		q.Metrics = append(q.Metrics, o.Metrics...)
		q.OrderBy = append(q.OrderBy, OrderBy{Metric: o.Metrics[0], Ascending: !o.OrderDesc})
	}
	applyFilters(&q, o.Filters)
	return []Query{q}, nil
}
