package templates

import (
	"fmt"
	"math"
	"strconv"

	"github.com/a-h/templ"
)

// Chart geometry, in SVG user units.
const (
	chartWidth   = 640
	chartHeight  = 240
	chartPadLeft = 48
	chartPadBot  = 24
	chartPadTop  = 8
)

var seriesColors = []string{"#2563eb", "#f59e0b"}

// chartGeometry is a laid out chart, every coordinate already formatted.
type chartGeometry struct {
	ViewBox  string
	Baseline lineGeometry
	Ticks    []tickGeometry
	Bars     []barGeometry
	Legend   []legendEntry
	Caption  string
}

type lineGeometry struct {
	X1, Y1, X2, Y2 string
}

type tickGeometry struct {
	X, Y  string
	Label string
}

type barGeometry struct {
	X, Y, Width, Height string
	Fill                string
	Title               string
}

type legendEntry struct {
	Name  string
	Class string
}

// BarChart draws grouped bars, one group per row. The y axis always
// includes zero so negative values hang below the baseline.
func BarChart(c ChartView) templ.Component {
	if len(c.Series) == 0 || c.Points == 0 {
		return noChart()
	}
	return barChart(layoutChart(c))
}

func layoutChart(c ChartView) chartGeometry {
	lo, hi := valueRange(c.Series)
	plotW := float64(chartWidth - chartPadLeft)
	plotH := float64(chartHeight - chartPadBot - chartPadTop)
	scale := plotH / (hi - lo)
	y := func(v float64) float64 { return chartPadTop + (hi-v)*scale }

	group := plotW / float64(c.Points)
	bar := group * 0.8 / float64(len(c.Series))
	base := y(0)

	g := chartGeometry{
		ViewBox:  fmt.Sprintf("0 0 %d %d", chartWidth, chartHeight),
		Baseline: lineGeometry{X1: num(chartPadLeft), Y1: num(base), X2: num(chartWidth), Y2: num(base)},
		Ticks: []tickGeometry{
			{X: num(chartPadLeft - 4), Y: num(y(hi) + 10), Label: num(hi)},
			{X: num(chartPadLeft - 4), Y: num(y(lo)), Label: num(lo)},
		},
	}

	for s, series := range c.Series {
		color := seriesColors[s%len(seriesColors)]
		for i, v := range series.Values {
			if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
				continue
			}
			top, bottom := y(*v), base
			if top > bottom {
				top, bottom = bottom, top
			}
			x := chartPadLeft + float64(i)*group + group*0.1 + float64(s)*bar
			g.Bars = append(g.Bars, barGeometry{
				X:      num(x),
				Y:      num(top),
				Width:  num(bar),
				Height: num(bottom - top),
				Fill:   color,
				Title:  fmt.Sprintf("%s[%d] = %s", series.Name, i, num(*v)),
			})
		}
		g.Legend = append(g.Legend, legendEntry{Name: series.Name, Class: fmt.Sprintf("series-%d", s%len(seriesColors))})
	}
	if c.Truncated {
		g.Caption = fmt.Sprintf("(first %d of %d rows)", c.Points, c.TotalRows)
	}
	return g
}

// valueRange returns the finite min and max across series, widened to
// include zero and never empty.
func valueRange(series []SeriesView) (lo, hi float64) {
	for _, s := range series {
		for _, v := range s.Values {
			if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
				continue
			}
			lo = math.Min(lo, *v)
			hi = math.Max(hi, *v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
