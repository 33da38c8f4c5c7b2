// Package pkg provides the core libraries for Supergrid dashboard management.
//
// # Overview
//
// Supergrid builds, inspects and manages Apache Superset dashboards
// programmatically. The pkg directory is organized into three main areas:
//
//  1. [superset] - The API client (auth, resources, SQL Lab, import/export)
//  2. [chart] + [layout] - Declarative chart and dashboard definitions
//  3. Infrastructure - [cache], [session], [errors], [httputil], [observability]
//
// # Architecture
//
// The typical data flow through Supergrid:
//
//	chart + layout definitions
//	         ↓
//	    [superset] client (create datasets, charts, dashboards)
//	         ↓
//	    Superset REST API
//	         ↓
//	    [render] package (layout tree → DOT → SVG)
//
// # Quick Start
//
// Connect, define a chart and place it on a dashboard:
//
//	import (
//	    "context"
//	    "github.com/dashforge/supergrid/pkg/chart"
//	    "github.com/dashforge/supergrid/pkg/superset"
//	)
//
//	// 1. Connect and authenticate
//	client, _ := superset.New(superset.Config{
//	    Host:     "http://localhost:8088",
//	    Username: "admin",
//	    Password: "admin",
//	})
//
//	// 2. Find the dataset backing the chart
//	ds, _ := client.Datasets.Datasource(ctx, "cleaned_sales_data")
//
//	// 3. Create a chart from a declarative definition
//	c, _ := superset.NewChart("Sales by Region", chart.NewPie(chart.Sum("sales"), "region"), ds)
//	client.Charts.Create(ctx, c)
//
//	// 4. Place it on a dashboard
//	d := &superset.Dashboard{DashboardTitle: "Sales"}
//	d.AddChart(c, 6, 50)
//	client.Dashboards.Create(ctx, d)
//
// # Main Packages
//
// [superset] - REST client for the Superset API. Typed services for
// dashboards, charts, datasets, databases and saved queries; JWT auth
// with refresh, CSRF handling, response caching and retries; SQL Lab
// execution; import/export bundles.
//
// [chart] - Declarative visualization definitions (pie, table, big
// number, timeseries bar) that compile to the params and query context
// documents Superset stores per chart.
//
// [layout] - The dashboard position grid as a typed tree: rows,
// columns, tabs, charts, markdown and dividers, with builders that
// maintain parent/child consistency and serialization matching the
// UI's position_json document.
//
// [render] - Turns layout trees into Graphviz diagrams (DOT and SVG)
// for documentation and diffing.
//
// [cache] - Response cache with file, memory, Redis and null backends,
// plus key derivation scoped per profile.
//
// [session] - Persisted login sessions (file, memory, Redis) so CLI
// invocations reuse tokens instead of re-authenticating.
//
// [errors] - Coded errors carrying machine-readable failure classes
// across package boundaries.
//
// [httputil] - Retry with exponential backoff for transient HTTP
// failures.
//
// [observability] - Hook points the client calls on requests, auth
// transitions and cache activity, for wiring logging or metrics.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/superset/...  # Specific package
//	go test -run Example        # Examples only
//
// [superset]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/superset
// [chart]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/chart
// [layout]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/layout
// [render]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/render
// [cache]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/cache
// [session]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/session
// [errors]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/dashforge/supergrid/pkg/buildinfo
package pkg
