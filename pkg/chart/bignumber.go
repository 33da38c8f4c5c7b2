package chart

// BigNumberOption configures a single headline number showing the
// total of one metric.
type BigNumberOption struct {
	Metric  Metric   `json:"metric"`
	Filters []Filter `json:"adhoc_filters"`

	// Subheader is the caption shown under the number.
	Subheader string `json:"subheader"`

	YAxisFormat string `json:"y_axis_format"`
	TimeFormat  string `json:"time_format"`

	Dashboards    []int          `json:"dashboards,omitempty"`
	ExtraFormData map[string]any `json:"extra_form_data"`
}

// NewBigNumber returns a headline number for the given metric.
func NewBigNumber(metric Metric) *BigNumberOption {
	return &BigNumberOption{
		Metric:        metric,
		Filters:       []Filter{},
		YAxisFormat:   FormatSmartNumber,
		TimeFormat:    FormatSmartDate,
		ExtraFormData: map[string]any{},
	}
}

// VizType implements [Option].
func (o *BigNumberOption) VizType() string { return "big_number_total" }

// Validate implements [Option].
func (o *BigNumberOption) Validate() error {
	if err := o.Metric.Validate(); err != nil {
		return err
	}
	return validateFilters(o.Filters)
}

// FormData implements [Option].
func (o *BigNumberOption) FormData(ds Datasource) (map[string]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return formData(o, ds)
}

// Queries implements [Option].
func (o *BigNumberOption) Queries() ([]Query, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	q := newQuery()
	q.Metrics = append(q.Metrics, o.Metric)
	applyFilters(&q, o.Filters)
	return []Query{q}, nil
}
