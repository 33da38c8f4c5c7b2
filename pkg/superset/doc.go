// Package superset is a client for the Apache Superset REST API.
//
// # Overview
//
// The [Client] authenticates against a Superset host with JWT tokens and
// exposes one service per resource type:
//
//   - [DashboardService]: dashboards, including position_json layouts
//   - [ChartService]: charts (slices)
//   - [DatasetService]: datasets and datasource lookups
//   - [DatabaseService]: database connections and SQL Lab execution
//   - [SavedQueryService]: saved queries
//
// # Usage
//
//	client, err := superset.New(superset.Config{
//	    Host:     "https://superset.example.com",
//	    Username: "admin",
//	    Password: password,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	dash, err := client.Dashboards.Get(ctx, 42)
//
// Authentication happens lazily on the first request; [Client.Authenticate]
// forces it. The CSRF token required by mutating endpoints is fetched once
// after login and attached to every POST, PUT and DELETE.
//
// # Searching
//
// List endpoints accept a [Query] serialized into the q= parameter:
//
//	dashboards, _, err := client.Dashboards.Find(ctx, superset.Query{
//	    Filters: []superset.Filter{superset.Like("dashboard_title", "%sales%")},
//	})
//
// # Resilience
//
// Every request retries transient failures (429, 5xx and transport errors)
// with exponential backoff via [httputil.Retry], honoring Retry-After on
// rate limits. A 401 triggers one token refresh followed by a replay of the
// original request. GET responses are cached through [cache.Cache] when the
// Config enables it.
//
// [httputil.Retry]: github.com/dashforge/supergrid/pkg/httputil.Retry
// [cache.Cache]: github.com/dashforge/supergrid/pkg/cache.Cache
package superset
