// Package roommap is a debug/inspection tool, not a randomizer feature: it
// renders a single room's spawn-group grid and one marker per entity
// instance to a PNG, so a developer can visually sanity-check randomizer
// placement. Markers are placed by each instance's index within its grid
// cell, not by the instance's stored position.
// It never mutates the entity graph or ROM image it reads.
//
// Adapted from the galaxy-map renderer's SVG-build-then-rasterize pipeline:
// an svgBuilder assembles a document, tdewolff/canvas parses it, and
// tdewolff/canvas/renderers/rasterizer draws it to an RGBA image.
package roommap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/galehouse/romforge/room"
)

// Options controls the rendered image's size and which Y layer of the grid
// is drawn (grid cells are laid out on X/Z; Y selects one horizontal slice).
type Options struct {
	CellSize int // pixels per grid cell, default 32
	Margin   int // pixels of border padding, default 16
	Y        int // which Y layer of the grid to render
}

func (o Options) withDefaults() Options {
	if o.CellSize <= 0 {
		o.CellSize = 32
	}
	if o.Margin <= 0 {
		o.Margin = 16
	}
	return o
}

var (
	gridEmptyColor    = color.RGBA{230, 230, 230, 255}
	gridOccupiedColor = color.RGBA{200, 225, 255, 255}
	syntheticColor    = color.RGBA{255, 230, 200, 255}
	instanceColor     = color.RGBA{200, 40, 40, 255}
)

// RenderSVG builds an SVG document depicting r's spawn-group grid (one cell
// per X/Z coordinate at the requested Y layer, shaded by whether the cell
// holds any instances) with a dot per instance, offset within its cell by
// index so overlapping spawns stay visible.
func RenderSVG(r *room.Room, opts Options) string {
	opts = opts.withDefaults()
	width := r.GroupsX*opts.CellSize + opts.Margin*2
	height := r.GroupsZ*opts.CellSize + opts.Margin*2
	if width < opts.CellSize+opts.Margin*2 {
		width = opts.CellSize + opts.Margin*2
	}
	if height < opts.CellSize+opts.Margin*2 {
		height = opts.CellSize + opts.Margin*2
	}

	svg := newSVGBuilder(width, height)

	cells := make(map[[2]int]*room.Group, len(r.Groups))
	for i := range r.Groups {
		g := &r.Groups[i]
		if g.IsSynthetic() || g.Y != opts.Y {
			continue
		}
		cells[[2]int{g.X, g.Z}] = g
	}

	for z := 0; z < r.GroupsZ; z++ {
		for x := 0; x < r.GroupsX; x++ {
			cx := float64(opts.Margin + x*opts.CellSize)
			cz := float64(opts.Margin + z*opts.CellSize)
			g, occupied := cells[[2]int{x, z}]
			fill := gridEmptyColor
			if occupied && len(g.Instances) > 0 {
				fill = gridOccupiedColor
			}
			svg.rect(cx, cz, float64(opts.CellSize), float64(opts.CellSize), rgbString(fill))

			if g == nil {
				continue
			}
			for i, inst := range g.Instances {
				dotX := cx + float64(opts.CellSize)*(0.3+0.4*float64(i%3)/2)
				dotY := cz + float64(opts.CellSize)*(0.3+0.4*float64((i/3)%3)/2)
				svg.circleRGBA(dotX, dotY, 3, instanceColor)
				svg.text(dotX+4, dotY+3, fmt.Sprintf("%#x", inst.ActorID()), instanceColor, 9)
			}
		}
	}

	for _, g := range r.Groups {
		if !g.IsSynthetic() {
			continue
		}
		svg.text(float64(opts.Margin), float64(height-opts.Margin/2), fmt.Sprintf("ungrouped: %d", len(g.Instances)), syntheticColor, 10)
	}

	return svg.string()
}

// RenderPNG rasterizes RenderSVG's output to an RGBA image via
// tdewolff/canvas.
func RenderPNG(r *room.Room, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	svgStr := RenderSVG(r, opts)

	c, err := canvas.ParseSVG(strings.NewReader(svgStr))
	if err != nil {
		return nil, fmt.Errorf("roommap: parsing generated SVG: %w", err)
	}

	width := r.GroupsX*opts.CellSize + opts.Margin*2
	canvasW := c.W
	if canvasW <= 0 {
		canvasW = float64(width)
	}
	dpmm := float64(width) / canvasW

	img := rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba, nil
}

// WritePNG renders r and encodes it as PNG to w.
func WritePNG(w io.Writer, r *room.Room, opts Options) error {
	img, err := RenderPNG(r, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("roommap: encoding PNG: %w", err)
	}
	return nil
}

// SavePNG renders r and writes it to filename as PNG.
func SavePNG(filename string, r *room.Room, opts Options) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("roommap: creating %s: %w", filename, err)
	}
	defer f.Close()
	return WritePNG(f, r, opts)
}

// Bytes renders r and returns the PNG bytes directly.
func Bytes(r *room.Room, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, r, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rgbString(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
