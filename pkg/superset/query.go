package superset

import (
	"encoding/json"
	"net/url"

	"github.com/dashforge/supergrid/pkg/errors"
)

// FilterOp is a list-endpoint filter operator. These are the short
// names the REST API understands in the q= parameter, distinct from
// the symbolic operators used inside chart definitions.
type FilterOp string

const (
	OpEqual        FilterOp = "eq"
	OpNotEqual     FilterOp = "ne"
	OpGreater      FilterOp = "gt"
	OpGreaterEqual FilterOp = "gte"
	OpLess         FilterOp = "lt"
	OpLessEqual    FilterOp = "lte"
	OpIn           FilterOp = "in"
	OpNotIn        FilterOp = "not in"
	OpLike         FilterOp = "like"
	OpILike        FilterOp = "ilike"
	OpIsNull       FilterOp = "is null"
	OpIsNotNull    FilterOp = "is not null"

	// OpTitleOrSlug matches dashboards by title or slug in one go.
	OpTitleOrSlug FilterOp = "title_or_slug"

	// OpRelOneMany filters through a to-many relation, e.g. charts by
	// owner id.
	OpRelOneMany FilterOp = "rel_o_m"
)

// Filter is one predicate of a list query.
type Filter struct {
	Col   string   `json:"col"`
	Op    FilterOp `json:"opr"`
	Value any      `json:"value,omitempty"`
}

// Eq filters rows where col equals value.
func Eq(col string, value any) Filter { return Filter{Col: col, Op: OpEqual, Value: value} }

// Ne filters rows where col differs from value.
func Ne(col string, value any) Filter { return Filter{Col: col, Op: OpNotEqual, Value: value} }

// Gt filters rows where col is greater than value.
func Gt(col string, value any) Filter { return Filter{Col: col, Op: OpGreater, Value: value} }

// Gte filters rows where col is greater than or equal to value.
func Gte(col string, value any) Filter { return Filter{Col: col, Op: OpGreaterEqual, Value: value} }

// Lt filters rows where col is less than value.
func Lt(col string, value any) Filter { return Filter{Col: col, Op: OpLess, Value: value} }

// Lte filters rows where col is less than or equal to value.
func Lte(col string, value any) Filter { return Filter{Col: col, Op: OpLessEqual, Value: value} }

// In filters rows where col is one of the given values.
func In(col string, values ...any) Filter { return Filter{Col: col, Op: OpIn, Value: values} }

// NotIn filters rows where col is none of the given values.
func NotIn(col string, values ...any) Filter { return Filter{Col: col, Op: OpNotIn, Value: values} }

// IsNull filters rows where col is null.
func IsNull(col string) Filter { return Filter{Col: col, Op: OpIsNull} }

// IsNotNull filters rows where col is not null.
func IsNotNull(col string) Filter { return Filter{Col: col, Op: OpIsNotNull} }

// Like filters with a SQL LIKE pattern, e.g. "%sales%".
func Like(col, pattern string) Filter { return Filter{Col: col, Op: OpLike, Value: pattern} }

// ILike filters with a case-insensitive LIKE pattern.
func ILike(col, pattern string) Filter { return Filter{Col: col, Op: OpILike, Value: pattern} }

// Query describes a list request: predicates, projection, ordering and
// pagination. The zero value lists the first page with the default
// page size.
type Query struct {
	Filters        []Filter `json:"filters"`
	Columns        []string `json:"columns"`
	OrderColumn    string   `json:"order_column,omitempty"`
	OrderDirection string   `json:"order_direction,omitempty"`
	Page           int      `json:"page"`
	PageSize       int      `json:"page_size"`
}

// DefaultPageSize is applied when Query.PageSize is zero.
const DefaultPageSize = 100

// encode renders the query as the q= parameter value.
func (q Query) encode() (string, error) {
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	// The API treats absent and empty collections the same, but null
	// trips its schema validation.
	if q.Filters == nil {
		q.Filters = []Filter{}
	}
	if q.Columns == nil {
		q.Columns = []string{}
	}
	if q.OrderDirection != "" && q.OrderDirection != "asc" && q.OrderDirection != "desc" {
		return "", errors.New(errors.ErrCodeInvalidInput, "order direction must be asc or desc, got %q", q.OrderDirection)
	}

	data, err := json.Marshal(q)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSerialization, err, "failed to encode list query")
	}
	return url.QueryEscape(string(data)), nil
}
