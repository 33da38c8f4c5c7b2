package chart

import "github.com/dashforge/supergrid/pkg/errors"

// Chart orientations.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// Common time grains, as ISO 8601 durations.
const (
	GrainSecond  = "PT1S"
	GrainMinute  = "PT1M"
	GrainHour    = "PT1H"
	GrainDay     = "P1D"
	GrainWeek    = "P1W"
	GrainMonth   = "P1M"
	GrainQuarter = "P3M"
	GrainYear    = "P1Y"
)

// TimeseriesBarOption configures a time series bar chart. XAxis is the
// time column, bucketed by TimeGrain; GroupBy columns split each bucket
// into one series per value.
type TimeseriesBarOption struct {
	XAxis   string   `json:"x_axis"`
	Metrics []Metric `json:"metrics"`
	GroupBy []string `json:"groupby"`
	Filters []Filter `json:"adhoc_filters"`

	TimeGrain string `json:"time_grain_sqla"`

	RowLimit  int  `json:"row_limit"`
	OrderDesc bool `json:"order_desc"`

	// TruncateMetric shortens long series names in the legend.
	TruncateMetric bool `json:"truncate_metric"`

	ColorScheme string `json:"color_scheme"`
	Orientation string `json:"orientation"`
	ShowValue   bool   `json:"show_value"`

	ShowLegend        bool   `json:"show_legend"`
	LegendType        string `json:"legendType"`
	LegendOrientation string `json:"legendOrientation"`

	XAxisTitle       string `json:"x_axis_title"`
	XAxisTitleMargin int    `json:"x_axis_title_margin"`
	YAxisTitle       string `json:"y_axis_title"`
	YAxisTitleMargin int    `json:"y_axis_title_margin"`

	XAxisSortAsc    bool   `json:"x_axis_sort_asc"`
	XAxisTimeFormat string `json:"x_axis_time_format"`
	YAxisFormat     string `json:"y_axis_format"`

	RichTooltip       bool   `json:"rich_tooltip"`
	TooltipTimeFormat string `json:"tooltipTimeFormat"`

	Dashboards    []int          `json:"dashboards,omitempty"`
	ExtraFormData map[string]any `json:"extra_form_data"`
}

// NewTimeseriesBar returns a bar chart of metrics over the given time
// column, bucketed by day.
func NewTimeseriesBar(xAxis string, metrics ...Metric) *TimeseriesBarOption {
	return &TimeseriesBarOption{
		XAxis:             xAxis,
		Metrics:           append([]Metric{}, metrics...),
		GroupBy:           []string{},
		Filters:           []Filter{},
		TimeGrain:         GrainDay,
		RowLimit:          defaultTableRowLimit,
		OrderDesc:         true,
		TruncateMetric:    true,
		ColorScheme:       defaultColorScheme,
		Orientation:       OrientationVertical,
		ShowLegend:        true,
		LegendType:        LegendScroll,
		LegendOrientation: LegendBottom,
		XAxisTitleMargin:  30,
		YAxisTitleMargin:  30,
		XAxisSortAsc:      true,
		XAxisTimeFormat:   FormatSmartDate,
		YAxisFormat:       FormatSmartNumber,
		RichTooltip:       true,
		TooltipTimeFormat: FormatSmartDate,
		ExtraFormData:     map[string]any{},
	}
}

// VizType implements [Option].
func (o *TimeseriesBarOption) VizType() string { return "echarts_timeseries_bar" }

// Validate implements [Option].
func (o *TimeseriesBarOption) Validate() error {
	if o.XAxis == "" {
		return errors.New(errors.ErrCodeInvalidChart, "time series bar chart requires an x axis column")
	}
	if len(o.Metrics) == 0 {
		return errors.New(errors.ErrCodeInvalidChart, "time series bar chart requires at least one metric")
	}
	for _, m := range o.Metrics {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if o.RowLimit <= 0 {
		return errors.New(errors.ErrCodeInvalidChart, "row limit must be positive, got %d", o.RowLimit)
	}
	return validateFilters(o.Filters)
}

// FormData implements [Option].
func (o *TimeseriesBarOption) FormData(ds Datasource) (map[string]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return formData(o, ds)
}

// Queries implements [Option].
func (o *TimeseriesBarOption) Queries() ([]Query, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := newQuery()
	q.Columns = append(q.Columns, o.XAxis)
	q.Columns = append(q.Columns, o.GroupBy...)
	q.Metrics = append(q.Metrics, o.Metrics...)
	q.RowLimit = o.RowLimit
	q.OrderDesc = o.OrderDesc
	q.OrderBy = append(q.OrderBy, OrderBy{Metric: o.Metrics[0], Ascending: !o.OrderDesc})
	q.Extras.TimeGrain = o.TimeGrain
	applyFilters(&q, o.Filters)
	return []Query{q}, nil
}
