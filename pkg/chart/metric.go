package chart

import (
	"encoding/json"
	"fmt"

	"github.com/dashforge/supergrid/pkg/errors"
)

// Aggregate is a SQL aggregate applied to a column in an ad hoc metric.
type Aggregate string

const (
	AggregateCount         Aggregate = "COUNT"
	AggregateCountDistinct Aggregate = "COUNT_DISTINCT"
	AggregateSum           Aggregate = "SUM"
	AggregateAvg           Aggregate = "AVG"
	AggregateMin           Aggregate = "MIN"
	AggregateMax           Aggregate = "MAX"
)

// Metric identifies a measure. Exactly one shape applies: a saved
// metric referenced by Name, a simple ad hoc metric built from
// Aggregate and Column, or a SQL ad hoc metric built from SQL.
//
// The zero value is not a valid metric.
type Metric struct {
	// Name references a metric saved on the dataset, such as "count".
	// When set, all other fields are ignored.
	Name string

	// Label is the display name. Required for SQL metrics. Simple ad
	// hoc metrics without one are labelled "AGGREGATE(column)".
	Label string

	Aggregate Aggregate
	Column    string

	// SQL is a free-form aggregate expression such as "SUM(price * qty)".
	SQL string
}

// SavedMetric references a metric defined on the dataset by name.
func SavedMetric(name string) Metric { return Metric{Name: name} }

// Count returns an ad hoc COUNT over the given column.
func Count(column string) Metric {
	return Metric{Aggregate: AggregateCount, Column: column}
}

// CountDistinct returns an ad hoc COUNT(DISTINCT) over the given column.
func CountDistinct(column string) Metric {
	return Metric{Aggregate: AggregateCountDistinct, Column: column}
}

// Sum returns an ad hoc SUM over the given column.
func Sum(column string) Metric {
	return Metric{Aggregate: AggregateSum, Column: column}
}

// Avg returns an ad hoc AVG over the given column.
func Avg(column string) Metric {
	return Metric{Aggregate: AggregateAvg, Column: column}
}

// Min returns an ad hoc MIN over the given column.
func Min(column string) Metric {
	return Metric{Aggregate: AggregateMin, Column: column}
}

// Max returns an ad hoc MAX over the given column.
func Max(column string) Metric {
	return Metric{Aggregate: AggregateMax, Column: column}
}

// SQLMetric returns an ad hoc metric computed by a SQL expression.
func SQLMetric(label, expression string) Metric {
	return Metric{Label: label, SQL: expression}
}

// Validate checks that the metric has exactly one usable shape.
func (m Metric) Validate() error {
	if m.Name != "" {
		return nil
	}
	if m.SQL != "" {
		if m.Label == "" {
			return errors.New(errors.ErrCodeInvalidChart, "SQL metric requires a label")
		}
		return nil
	}
	if m.Aggregate == "" && m.Column == "" {
		return errors.New(errors.ErrCodeInvalidChart, "metric is empty")
	}
	if m.Aggregate == "" {
		return errors.New(errors.ErrCodeInvalidChart, "metric column %q has no aggregate", m.Column)
	}
	if !validAggregate(m.Aggregate) {
		return errors.New(errors.ErrCodeInvalidChart, "unknown aggregate %q", m.Aggregate)
	}
	if m.Column == "" {
		return errors.New(errors.ErrCodeInvalidChart, "%s metric requires a column", m.Aggregate)
	}
	return nil
}

func validAggregate(a Aggregate) bool {
	switch a {
	case AggregateCount, AggregateCountDistinct, AggregateSum, AggregateAvg, AggregateMin, AggregateMax:
		return true
	}
	return false
}

// label returns the display label, deriving "AGGREGATE(column)" for
// simple metrics without a custom one.
func (m Metric) label() string {
	if m.Label != "" {
		return m.Label
	}
	return fmt.Sprintf("%s(%s)", m.Aggregate, m.Column)
}

const (
	expressionSimple = "SIMPLE"
	expressionSQL    = "SQL"
)

// adhocMetric is the wire form of an ad hoc metric definition.
type adhocMetric struct {
	ExpressionType string        `json:"expressionType"`
	Column         *metricColumn `json:"column,omitempty"`
	Aggregate      Aggregate     `json:"aggregate,omitempty"`
	SQLExpression  string        `json:"sqlExpression,omitempty"`
	Label          string        `json:"label"`
	HasCustomLabel bool          `json:"hasCustomLabel,omitempty"`
}

type metricColumn struct {
	ColumnName string `json:"column_name"`
}

// MarshalJSON writes saved metrics as bare strings and ad hoc metrics
// as objects, matching what the chart data API expects.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Name != "" {
		return json.Marshal(m.Name)
	}
	a := adhocMetric{
		ExpressionType: expressionSimple,
		Label:          m.label(),
		HasCustomLabel: m.Label != "",
	}
	if m.SQL != "" {
		a.ExpressionType = expressionSQL
		a.SQLExpression = m.SQL
	} else {
		a.Column = &metricColumn{ColumnName: m.Column}
		a.Aggregate = m.Aggregate
	}
	return json.Marshal(a)
}

// UnmarshalJSON accepts both wire forms.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*m = Metric{}
		return json.Unmarshal(data, &m.Name)
	}
	var a adhocMetric
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = Metric{SQL: a.SQLExpression, Aggregate: a.Aggregate}
	if a.Column != nil {
		m.Column = a.Column.ColumnName
	}
	if a.HasCustomLabel || a.ExpressionType == expressionSQL {
		m.Label = a.Label
	}
	return nil
}
