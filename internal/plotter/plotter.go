// Package plotter renders before/after polygon outlines to PNG files for
// visual inspection of manhattanization results. Debugging aid only; no
// production path depends on it.
package plotter

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/litho-tools/maskprep/internal/geom"
	"github.com/litho-tools/maskprep/internal/manhattan"
)

// PolygonPlotter accumulates input/output polygon pairs per layer and
// writes one comparison plot per layer.
type PolygonPlotter struct {
	outputDir string

	// layers holds before/after rings keyed by layer label (e.g. "10/0")
	layers map[string]*layerPlot
	order  []string
}

type layerPlot struct {
	before []geom.Ring
	after  []geom.Ring
}

// New creates a PolygonPlotter writing into outputDir (created if
// missing).
func New(outputDir string) (*PolygonPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &PolygonPlotter{
		outputDir: outputDir,
		layers:    make(map[string]*layerPlot),
	}, nil
}

// Record adds one layer's before rings and after polygons to the plot
// set.
func (pp *PolygonPlotter) Record(layer string, before []geom.Ring, after []manhattan.Polygon) {
	lp, ok := pp.layers[layer]
	if !ok {
		lp = &layerPlot{}
		pp.layers[layer] = lp
		pp.order = append(pp.order, layer)
	}
	lp.before = append(lp.before, before...)
	for _, p := range after {
		lp.after = append(lp.after, p.Outer)
		lp.after = append(lp.after, p.Holes...)
	}
}

// WriteAll renders one PNG per recorded layer and returns the written
// file paths.
func (pp *PolygonPlotter) WriteAll() ([]string, error) {
	var files []string
	for _, layer := range pp.order {
		lp := pp.layers[layer]
		p := plot.New()
		p.Title.Text = fmt.Sprintf("layer %s: input vs manhattanized", layer)
		p.X.Label.Text = "x (user units)"
		p.Y.Label.Text = "y (user units)"

		if err := addRings(p, lp.before, color.RGBA{R: 180, G: 180, B: 180, A: 255}); err != nil {
			return files, err
		}
		if err := addRings(p, lp.after, color.RGBA{R: 200, B: 30, A: 255}); err != nil {
			return files, err
		}

		file := filepath.Join(pp.outputDir, fmt.Sprintf("layer_%s.png", sanitize(layer)))
		if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
			return files, fmt.Errorf("failed to save plot for layer %s: %w", layer, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// addRings draws each ring as a closed polyline.
func addRings(p *plot.Plot, rings []geom.Ring, c color.Color) error {
	for _, r := range rings {
		pts := make(plotter.XYs, 0, len(r))
		for _, v := range r.Close() {
			pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build outline: %w", err)
		}
		line.Width = vg.Points(1)
		line.Color = c
		p.Add(line)
	}
	return nil
}

// sanitize makes a layer label safe for a filename.
func sanitize(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b == '/' {
			out[i] = '_'
		}
	}
	return string(out)
}
