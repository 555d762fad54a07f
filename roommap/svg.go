package roommap

import (
	"fmt"
	"image/color"
	"strings"
)

// svgBuilder provides a minimal fluent interface for building the SVG
// document a room map is rendered through before rasterization, adapted
// from the galaxy-map renderer's SVGBuilder down to the handful of
// primitives a grid-and-markers view needs.
type svgBuilder struct {
	width, height int
	elements      []string
}

func newSVGBuilder(width, height int) *svgBuilder {
	return &svgBuilder{width: width, height: height, elements: make([]string, 0, 64)}
}

func (b *svgBuilder) rect(x, y, width, height float64, fill string) *svgBuilder {
	b.elements = append(b.elements, fmt.Sprintf(
		`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="rgb(64,64,64)" stroke-width="1"/>`,
		x, y, width, height, fill))
	return b
}

func (b *svgBuilder) circleRGBA(cx, cy, r float64, col color.RGBA) *svgBuilder {
	b.elements = append(b.elements, fmt.Sprintf(
		`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="rgb(%d,%d,%d)"/>`,
		cx, cy, r, col.R, col.G, col.B))
	return b
}

func (b *svgBuilder) text(x, y float64, s string, col color.RGBA, fontSize int) *svgBuilder {
	b.elements = append(b.elements, fmt.Sprintf(
		`<text x="%.1f" y="%.1f" fill="rgb(%d,%d,%d)" font-size="%d" font-family="monospace">%s</text>`,
		x, y, col.R, col.G, col.B, fontSize, s))
	return b
}

func (b *svgBuilder) string() string {
	var svg strings.Builder
	svg.Grow(200 + len(b.elements)*80)
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="%d" height="%d" fill="white"/>
`, b.width, b.height, b.width, b.height, b.width, b.height))
	for _, el := range b.elements {
		svg.WriteString(el)
		svg.WriteString("\n")
	}
	svg.WriteString("</svg>\n")
	return svg.String()
}
