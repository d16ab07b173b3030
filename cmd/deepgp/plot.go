package main

import (
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/deepgp/deepgp"
	"github.com/deepgp/deepgp/gp"
	"github.com/deepgp/deepgp/prng"
)

// plotRegression writes the posterior mean with a ±2σ band over the data.
func plotRegression(path string, x *mat.Dense, y []float64, post *gp.GP) error {
	const numPred = 200
	grid := gridPoints(-3, 3, numPred)
	mean := post.MeanBatch(nil, grid)
	std := post.StdDevBatch(nil, grid)

	band := make(plotter.XYs, 0, 2*numPred)
	for i := 0; i < numPred; i++ {
		band = append(band, plotter.XY{X: grid.At(i, 0), Y: mean[i] + 2*std[i]})
	}
	for i := numPred - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: grid.At(i, 0), Y: mean[i] - 2*std[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = color.RGBA{R: 70, G: 130, B: 180, A: 60}
	poly.LineStyle.Width = 0

	line, err := plotter.NewLine(curve(grid, mean))
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	points, err := dataScatter(x, y)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "GP regression"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(poly, line, points)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// plotDeep writes sample paths of the trained model at the data points,
// with the noiseless step target dashed.
func plotDeep(path string, x *mat.Dense, y []float64, model *deepgp.Model, key prng.Key) error {
	const numPaths = 10
	p := plot.New()
	p.Title.Text = "Deep GP step fit"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for _, k := range key.SplitN(numPaths) {
		vals, err := model.Sample(k, x)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(curve(x, vals))
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 70}
		p.Add(line)
	}

	const numPred = 200
	grid := gridPoints(-1.5, 1.5, numPred)
	target := make([]float64, numPred)
	for i := range target {
		target[i] = stepFun(grid.At(i, 0))
	}
	dashed, err := plotter.NewLine(curve(grid, target))
	if err != nil {
		return err
	}
	dashed.Color = color.Black
	dashed.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	points, err := dataScatter(x, y)
	if err != nil {
		return err
	}
	p.Add(dashed, points)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func gridPoints(lo, hi float64, n int) *mat.Dense {
	return mat.NewDense(n, 1, floats.Span(make([]float64, n), lo, hi))
}

func curve(x *mat.Dense, y []float64) plotter.XYs {
	out := make(plotter.XYs, len(y))
	for i := range y {
		out[i] = plotter.XY{X: x.At(i, 0), Y: y[i]}
	}
	return out
}

func dataScatter(x *mat.Dense, y []float64) (*plotter.Scatter, error) {
	points, err := plotter.NewScatter(curve(x, y))
	if err != nil {
		return nil, err
	}
	points.GlyphStyle.Shape = draw.BoxGlyph{}
	points.GlyphStyle.Color = color.Black
	return points, nil
}
