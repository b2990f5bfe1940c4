package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotRankings saves one bar chart of mean model ranks per task, stacked in a
// single image at path. The image format follows the file extension (png,
// svg, pdf, ...).
func PlotRankings(rankings []TaskRanking, path string) error {
	var plots [][]*plot.Plot
	widest := 0
	for _, r := range rankings {
		if len(r.Ranks) == 0 {
			continue
		}
		p, err := rankingPlot(r.Ranks, fmt.Sprintf("Mean %s model rank (lower is better)", r.Task))
		if err != nil {
			return err
		}
		plots = append(plots, []*plot.Plot{p})
		widest = max(widest, len(r.Ranks))
	}
	if len(plots) == 0 {
		return errors.New("report: nothing to plot")
	}

	width := vg.Length(widest)*vg.Centimeter*2 + 4*vg.Centimeter
	height := vg.Length(len(plots)) * 10 * vg.Centimeter
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return err
	}
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Centimeter}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func rankingPlot(ranks []ModelRank, title string) (*plot.Plot, error) {
	values := make(plotter.Values, len(ranks))
	names := make([]string, len(ranks))
	for i, r := range ranks {
		values[i] = r.MeanRank
		names[i] = r.Model
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Mean rank"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}
