package chart

import (
	"encoding/json"
	"strings"
)

// QueryFilter is the flat column filter form used inside a query object.
type QueryFilter struct {
	Col string   `json:"col"`
	Op  Operator `json:"op"`
	Val any      `json:"val,omitempty"`
}

// OrderBy sorts query results by a metric. It serializes as the
// two-element array form the chart data API expects, e.g.
// [{"expressionType": ...}, false].
type OrderBy struct {
	Metric    Metric
	Ascending bool
}

func (o OrderBy) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Metric, o.Ascending})
}

func (o *OrderBy) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &o.Metric); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &o.Ascending)
}

// Extras carries the free-form SQL fragments of a query object.
type Extras struct {
	Having    string `json:"having"`
	Where     string `json:"where"`
	TimeGrain string `json:"time_grain_sqla,omitempty"`
}

// Query is one query object inside a chart's query context. Fields
// mirror the chart data API; empty collections serialize as empty, not
// null, so documents match what the web UI produces.
type Query struct {
	Columns           []string          `json:"columns"`
	Metrics           []Metric          `json:"metrics"`
	Filters           []QueryFilter     `json:"filters"`
	OrderBy           []OrderBy         `json:"orderby"`
	RowLimit          int               `json:"row_limit"`
	SeriesLimit       int               `json:"series_limit"`
	OrderDesc         bool              `json:"order_desc"`
	Extras            Extras            `json:"extras"`
	AppliedTimeExtras map[string]string `json:"applied_time_extras"`
	AnnotationLayers  []any             `json:"annotation_layers"`
	URLParams         map[string]string `json:"url_params"`
	CustomParams      map[string]any    `json:"custom_params"`
	CustomFormData    map[string]any    `json:"custom_form_data"`
}

const defaultRowLimit = 100

// newQuery returns a query with the API's defaults and all collections
// initialized.
func newQuery() Query {
	return Query{
		Columns:           []string{},
		Metrics:           []Metric{},
		Filters:           []QueryFilter{},
		OrderBy:           []OrderBy{},
		RowLimit:          defaultRowLimit,
		OrderDesc:         true,
		AppliedTimeExtras: map[string]string{},
		AnnotationLayers:  []any{},
		URLParams:         map[string]string{},
		CustomParams:      map[string]any{},
		CustomFormData:    map[string]any{},
	}
}

// applyFilters routes chart filters into the query: simple filters
// become flat col/op/val entries, SQL filters join the WHERE or HAVING
// fragment in extras.
func applyFilters(q *Query, filters []Filter) {
	var where, having []string
	for _, f := range filters {
		switch {
		case f.SQL != "" && f.Clause == ClauseHaving:
			having = append(having, f.SQL)
		case f.SQL != "":
			where = append(where, f.SQL)
		default:
			q.Filters = append(q.Filters, QueryFilter{Col: f.Subject, Op: f.Operator, Val: f.Comparator})
		}
	}
	q.Extras.Where = strings.Join(where, " AND ")
	q.Extras.Having = strings.Join(having, " AND ")
}

// validateFilters checks every filter in the slice.
func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
