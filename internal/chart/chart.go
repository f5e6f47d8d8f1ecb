// Package chart renders measurement history as PNG line charts.
package chart

import (
	"bytes"
	"math"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"github.com/wcharczuk/go-chart/v2"
)

type Point struct {
	Time  time.Time
	Value float64
}

// Series is one sensor's values for a single metric.
type Series struct {
	Label  string
	Points []Point
}

const (
	chartWidth  = 800
	chartHeight = 400
)

// RenderPNG draws one line per series and returns the encoded image.
// Series without points are skipped.
func RenderPNG(title, yLabel string, series []Series) ([]byte, error) {
	plotted := make([]chart.Series, 0, len(series))
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}

		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = p.Time
			ys[i] = p.Value
		}

		plotted = append(plotted, chart.TimeSeries{
			Name: s.Label,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(len(plotted)),
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	if len(plotted) == 0 {
		return nil, errors.New().New(ErrNoData)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:  yLabel,
			Range: valueRange(series),
		},
		Series: plotted,
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.New().Wrap(ErrRender, err)
	}

	return buf.Bytes(), nil
}

// valueRange pads flat data so the y-range is never zero, which the
// renderer rejects. Varying data keeps the automatic range.
func valueRange(series []Series) chart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}

	if lo < hi || math.IsInf(lo, 1) {
		return nil
	}

	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}
