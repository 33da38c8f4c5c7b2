// Package render turns dashboard layout trees into diagrams.
//
// # Overview
//
// A layout tree describes the visual structure of a dashboard: the grid,
// its rows, columns and tabs, and the charts and markdown blocks inside
// them. This package renders that structure as a node-link diagram so a
// layout can be inspected without loading the dashboard in a browser.
//
// [ToDOT] converts a tree to Graphviz DOT, one node per layout element
// with parent-child edges. [RenderSVG] rasterizes the DOT to SVG with an
// embedded Graphviz engine, so no external binary is needed.
//
//	dot := render.ToDOT(tree)
//	svg, err := render.RenderSVG(ctx, dot)
//
// The DOT output is deterministic for a given tree, which makes diagram
// diffs between two versions of a dashboard meaningful.
package render
