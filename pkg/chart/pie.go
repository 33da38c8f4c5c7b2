package chart

import "github.com/dashforge/supergrid/pkg/errors"

// Pie slice label contents.
const (
	LabelKey             = "key"
	LabelValue           = "value"
	LabelPercent         = "percent"
	LabelKeyValue        = "key_value"
	LabelKeyPercent      = "key_percent"
	LabelKeyValuePercent = "key_value_percent"
)

// PieOption configures a pie or donut chart.
type PieOption struct {
	// Metric is the measure sliced by the groupby columns.
	Metric  Metric   `json:"metric"`
	GroupBy []string `json:"groupby"`
	Filters []Filter `json:"adhoc_filters"`

	RowLimit int `json:"row_limit"`

	// SortByMetric orders slices by descending metric value.
	SortByMetric bool `json:"sort_by_metric"`

	ColorScheme       string `json:"color_scheme"`
	ShowLegend        bool   `json:"show_legend"`
	LegendType        string `json:"legendType"`
	LegendOrientation string `json:"legendOrientation"`

	LabelType     string `json:"label_type"`
	ShowLabels    bool   `json:"show_labels"`
	LabelsOutside bool   `json:"labels_outside"`

	// ShowLabelsThreshold hides labels for slices under this percentage.
	ShowLabelsThreshold float64 `json:"show_labels_threshold"`

	NumberFormat string `json:"number_format"`
	DateFormat   string `json:"date_format"`

	// Donut renders a ring using InnerRadius instead of a full disc.
	Donut       bool `json:"donut"`
	InnerRadius int  `json:"innerRadius"`
	OuterRadius int  `json:"outerRadius"`

	Dashboards    []int          `json:"dashboards,omitempty"`
	ExtraFormData map[string]any `json:"extra_form_data"`
}

// NewPie returns a pie chart of metric sliced by the groupby columns,
// with the web UI's defaults.
func NewPie(metric Metric, groupby ...string) *PieOption {
	return &PieOption{
		Metric:              metric,
		GroupBy:             append([]string{}, groupby...),
		Filters:             []Filter{},
		RowLimit:            defaultRowLimit,
		SortByMetric:        true,
		ColorScheme:         defaultColorScheme,
		ShowLegend:          true,
		LegendType:          LegendScroll,
		LegendOrientation:   LegendTop,
		LabelType:           LabelKey,
		ShowLabels:          true,
		LabelsOutside:       true,
		ShowLabelsThreshold: 5,
		NumberFormat:        FormatSmartNumber,
		DateFormat:          FormatSmartDate,
		InnerRadius:         30,
		OuterRadius:         70,
		ExtraFormData:       map[string]any{},
	}
}

// VizType implements [Option].
func (o *PieOption) VizType() string { return "pie" }

// Validate implements [Option].
func (o *PieOption) Validate() error {
	if err := o.Metric.Validate(); err != nil {
		return err
	}
	if len(o.GroupBy) == 0 {
		return errors.New(errors.ErrCodeInvalidChart, "pie chart requires at least one groupby column")
	}
	if o.RowLimit <= 0 {
		return errors.New(errors.ErrCodeInvalidChart, "row limit must be positive, got %d", o.RowLimit)
	}
	return validateFilters(o.Filters)
}

// FormData implements [Option].
func (o *PieOption) FormData(ds Datasource) (map[string]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return formData(o, ds)
}

// Queries implements [Option].
func (o *PieOption) Queries() ([]Query, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := newQuery()
	q.Columns = append(q.Columns, o.GroupBy...)
	q.Metrics = append(q.Metrics, o.Metric)
	q.RowLimit = o.RowLimit
	if o.SortByMetric {
		q.OrderBy = append(q.OrderBy, OrderBy{Metric: o.Metric})
	}
	applyFilters(&q, o.Filters)
	return []Query{q}, nil
}
