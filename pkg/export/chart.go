package export

import (
	"bytes"
	"fmt"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// Line is one named time series.
type Line struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// ChartRenderer draws PNG charts.
type ChartRenderer struct {
	Width  int
	Height int
}

// NewChartRenderer constructs a renderer with a 1000x600 canvas.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 1000, Height: 600}
}

// Bars renders a bar chart with one bar per entry, in the given order.
func (r *ChartRenderer) Bars(title string, bars []Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("bar chart requires at least one bar")
	}
	values := make([]chart.Value, len(bars))
	min, max := 0.0, 0.0
	for i, bar := range bars {
		values[i] = chart.Value{Label: bar.Label, Value: bar.Value}
		min = math.Min(min, bar.Value)
		max = math.Max(max, bar.Value)
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   barWidth(r.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 20}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "Points",
			Range: paddedRange(min, max),
		},
		Bars: values,
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Lines renders one line per series against a shared time axis, with a legend.
func (r *ChartRenderer) Lines(title string, lines []Line) ([]byte, error) {
	series := make([]chart.Series, 0, len(lines))
	var first, last time.Time
	min, max := math.Inf(1), math.Inf(-1)
	for _, line := range lines {
		if len(line.Times) == 0 || len(line.Times) != len(line.Values) {
			continue
		}
		for i, at := range line.Times {
			if first.IsZero() || at.Before(first) {
				first = at
			}
			if at.After(last) {
				last = at
			}
			min = math.Min(min, line.Values[i])
			max = math.Max(max, line.Values[i])
		}
		series = append(series, chart.TimeSeries{
			Name:    line.Name,
			XValues: line.Times,
			YValues: line.Values,
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 3},
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("line chart requires at least one non-empty series")
	}

	graph := chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style:          chart.Style{TextRotationDegrees: 45},
			Range:          timeRange(first, last),
		},
		YAxis: chart.YAxis{
			Name:  "Total Points",
			Range: paddedRange(min, max),
		},
		Series: series,
	}
	if len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render line chart: %w", err)
	}
	return buf.Bytes(), nil
}

// paddedRange widens a degenerate range; go-chart refuses a zero-width axis.
func paddedRange(min, max float64) *chart.ContinuousRange {
	if max-min < 1 {
		min--
		max++
	}
	return &chart.ContinuousRange{Min: min, Max: max}
}

func timeRange(first, last time.Time) *chart.ContinuousRange {
	if !last.After(first) {
		first = first.Add(-time.Hour)
		last = last.Add(time.Hour)
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)}
}

func barWidth(canvas, bars int) int {
	width := canvas / (bars * 2)
	switch {
	case width > 60:
		return 60
	case width < 8:
		return 8
	default:
		return width
	}
}
