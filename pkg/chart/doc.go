// Package chart builds Superset chart definitions: form data, ad hoc
// metrics and filters, and the query context the server executes.
//
// # Overview
//
// A chart is described by an [Option], one concrete type per
// visualization. Options carry the fields Superset stores in a chart's
// params blob, with the same defaults the web UI applies:
//
//   - [PieOption]: pie and donut charts
//   - [TableOption]: aggregate and raw data tables
//   - [TimeseriesBarOption]: time series bar charts
//   - [BigNumberOption]: single-value headline numbers
//
// Constructors return options preloaded with those defaults, so a
// minimal chart needs only a metric and the columns to group by:
//
//	opt := chart.NewPie(chart.Sum("sales"), "region")
//	params, err := chart.Params(opt, chart.NewDatasource(42))
//	qc, err := chart.QueryContext(opt, chart.NewDatasource(42))
//
// [Params] and [QueryContext] render the two JSON documents a chart
// record stores. Both are deterministic: the same option and datasource
// always produce byte-identical output.
//
// # Metrics
//
// A [Metric] is either a saved metric referenced by name or an ad hoc
// definition built from an aggregate and a column, or from a SQL
// expression. The JSON form follows the value: saved metrics serialize
// as bare strings, ad hoc metrics as objects.
//
//	chart.SavedMetric("count")          // "count"
//	chart.Sum("sales")                  // {"expressionType": "SIMPLE", ...}
//	chart.SQLMetric("Margin", "SUM(revenue - cost)")
//
// # Filters
//
// A [Filter] restricts the rows a chart reads. Simple filters pair a
// column with an operator and comparator; SQL filters carry a free-form
// expression routed into the query's WHERE or HAVING clause.
package chart
