package chart

import (
	"encoding/json"

	"github.com/dashforge/supergrid/pkg/errors"
)

// Operator is a comparison operator in a chart filter.
type Operator string

const (
	OpEqual         Operator = "=="
	OpNotEqual      Operator = "!="
	OpGreater       Operator = ">"
	OpGreaterEqual  Operator = ">="
	OpLess          Operator = "<"
	OpLessEqual     Operator = "<="
	OpIn            Operator = "IN"
	OpNotIn         Operator = "NOT IN"
	OpLike          Operator = "LIKE"
	OpILike         Operator = "ILIKE"
	OpIsNull        Operator = "IS NULL"
	OpIsNotNull     Operator = "IS NOT NULL"
	OpTemporalRange Operator = "TEMPORAL_RANGE"
)

// Clause selects where a filter applies in the generated SQL.
type Clause string

const (
	ClauseWhere  Clause = "WHERE"
	ClauseHaving Clause = "HAVING"
)

// Filter restricts the rows a chart reads. Simple filters pair Subject
// with Operator and Comparator; SQL filters carry a free-form
// expression instead and ignore those fields.
//
// Clause defaults to WHERE when empty.
type Filter struct {
	Subject    string
	Operator   Operator
	Comparator any
	Clause     Clause

	// SQL is a free-form boolean expression such as "state != 'failed'".
	SQL string
}

// Where returns a simple WHERE filter on the given column.
func Where(subject string, op Operator, comparator any) Filter {
	return Filter{Subject: subject, Operator: op, Comparator: comparator, Clause: ClauseWhere}
}

// WhereSQL returns a free-form WHERE filter.
func WhereSQL(expression string) Filter {
	return Filter{SQL: expression, Clause: ClauseWhere}
}

// HavingSQL returns a free-form HAVING filter, applied after aggregation.
func HavingSQL(expression string) Filter {
	return Filter{SQL: expression, Clause: ClauseHaving}
}

// TimeRange returns a temporal range filter on the given time column.
// The range uses Superset's grammar, e.g. "Last week" or
// "2024-01-01 : 2024-06-30".
func TimeRange(column, timeRange string) Filter {
	return Filter{Subject: column, Operator: OpTemporalRange, Comparator: timeRange, Clause: ClauseWhere}
}

// Validate checks that the filter is complete enough to serialize.
func (f Filter) Validate() error {
	if f.SQL != "" {
		return nil
	}
	if f.Subject == "" {
		return errors.New(errors.ErrCodeInvalidFilter, "filter requires a subject column")
	}
	if !validOperator(f.Operator) {
		return errors.New(errors.ErrCodeInvalidFilter, "unknown operator %q", f.Operator)
	}
	if f.Comparator == nil && !nullaryOperator(f.Operator) {
		return errors.New(errors.ErrCodeInvalidFilter, "operator %s requires a comparator", f.Operator)
	}
	return nil
}

func validOperator(op Operator) bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual,
		OpIn, OpNotIn, OpLike, OpILike, OpIsNull, OpIsNotNull, OpTemporalRange:
		return true
	}
	return false
}

func nullaryOperator(op Operator) bool {
	return op == OpIsNull || op == OpIsNotNull
}

// adhocFilter is the wire form of a filter clause.
type adhocFilter struct {
	ExpressionType string   `json:"expressionType"`
	Subject        string   `json:"subject,omitempty"`
	Operator       Operator `json:"operator,omitempty"`
	Comparator     any      `json:"comparator,omitempty"`
	Clause         Clause   `json:"clause"`
	SQLExpression  string   `json:"sqlExpression,omitempty"`
	IsExtra        bool     `json:"isExtra"`
	IsNew          bool     `json:"isNew"`
}

// MarshalJSON writes the filter in Superset's ad hoc clause form.
func (f Filter) MarshalJSON() ([]byte, error) {
	clause := f.Clause
	if clause == "" {
		clause = ClauseWhere
	}
	a := adhocFilter{Clause: clause}
	if f.SQL != "" {
		a.ExpressionType = expressionSQL
		a.SQLExpression = f.SQL
	} else {
		a.ExpressionType = expressionSimple
		a.Subject = f.Subject
		a.Operator = f.Operator
		a.Comparator = f.Comparator
	}
	return json.Marshal(a)
}

// UnmarshalJSON accepts the ad hoc clause form.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var a adhocFilter
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = Filter{
		Subject:    a.Subject,
		Operator:   a.Operator,
		Comparator: a.Comparator,
		Clause:     a.Clause,
		SQL:        a.SQLExpression,
	}
	return nil
}
