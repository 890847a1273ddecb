// Package debugplot writes PNG snapshots of per-plane 2D projections
// so quad extraction can be inspected visually after a run.
package debugplot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlaneProjection plots the projected inlier points of one plane
// together with the extracted quad outline and writes the result to
// outDir/plane_<n>.png.
func SavePlaneProjection(outDir string, planeIdx int, points [][2]float64, quad [4][2]float64) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("plane %d projection (%d inliers)", planeIdx, len(points))
	p.X.Label.Text = "u"
	p.Y.Label.Text = "v"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt[0]
		xys[i].Y = pt[1]
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}

	outline := make(plotter.XYs, 5)
	for i := 0; i < 4; i++ {
		outline[i].X = quad[i][0]
		outline[i].Y = quad[i][1]
	}
	outline[4] = outline[0]
	line, err := plotter.NewLine(outline)
	if err != nil {
		return fmt.Errorf("build quad outline: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}

	p.Add(scatter, line)

	out := filepath.Join(outDir, fmt.Sprintf("plane_%d.png", planeIdx))
	if err := p.Save(6*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
