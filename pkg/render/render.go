package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/dashforge/supergrid/pkg/layout"
)

// ToDOT converts a layout tree to Graphviz DOT format. The output is
// deterministic: nodes appear in depth-first insertion order and edges
// follow the same walk, so identical trees produce identical documents.
// The resulting DOT can be rendered with [RenderSVG].
//
// Each node kind gets its own shape so the structure reads at a glance:
// charts are boxes, tabs folders, markdown blocks notes, dividers
// points; purely structural nodes (grid, rows, columns) are dashed.
func ToDOT(t *layout.Tree) []byte {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for n := range t.Walk() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(t, n), ", "))
	}

	buf.WriteString("\n")
	for n := range t.Walk() {
		for _, child := range t.Children(n.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID, child)
		}
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}

func nodeAttrs(t *layout.Tree, n *layout.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(t, n))}
	switch n.Kind {
	case layout.KindRoot:
		attrs = append(attrs, "style=\"bold,filled\"", "fillcolor=lightgoldenrod1")
	case layout.KindGrid, layout.KindRow, layout.KindColumn:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case layout.KindTabs:
		attrs = append(attrs, "shape=folder", "style=\"filled,dashed\"", "fillcolor=lightgrey")
	case layout.KindTab:
		attrs = append(attrs, "shape=folder", "fillcolor=cornsilk")
	case layout.KindMarkdown:
		attrs = append(attrs, "shape=note", "fillcolor=lightyellow")
	case layout.KindDivider:
		attrs = append(attrs, "shape=point")
	case layout.KindHeader:
		attrs = append(attrs, "fillcolor=lightsteelblue")
	}
	return attrs
}

func nodeLabel(t *layout.Tree, n *layout.Node) string {
	switch p := n.Position.(type) {
	case layout.ChartPosition:
		label := p.SliceName
		if label == "" {
			label = "chart"
		}
		if p.ChartID != 0 {
			label += fmt.Sprintf("\n#%d", p.ChartID)
		}
		return label
	case layout.TabPosition:
		return p.Label
	case layout.HeaderPosition:
		return p.Text
	case layout.MarkdownPosition:
		return "markdown"
	case layout.DividerPosition:
		return ""
	}

	switch n.Kind {
	case layout.KindRoot:
		if title := t.Title(); title != "" {
			return title
		}
		return "dashboard"
	case layout.KindGrid:
		return "grid"
	case layout.KindRow:
		return "row"
	case layout.KindColumn:
		return "column"
	case layout.KindTabs:
		return "tabs"
	}
	return n.ID
}

// RenderSVG renders a DOT document to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the viewBox starts at
// the origin and the pixel size matches it. Graphviz emits point-based
// sizes with a translated viewBox, which trips up browser scaling.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
