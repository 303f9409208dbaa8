package views

import (
	"strconv"
	"strings"
	"time"

	"riverwatch/internal/modules/conditions/types"
	"riverwatch/internal/units"
)

const (
	chartWidth   = 640
	chartHeight  = 200
	chartPadding = 24
)

type Point struct {
	X float64
	Y float64
}

// Chart is a pre-scaled SVG line chart for one measurement series.
type Chart struct {
	Title    string
	Width    int
	Height   int
	Polyline string
	Dots     []Point
	YMin     string
	YMax     string
	XStart   string
	XEnd     string
}

type series struct {
	title string
	value func(types.Reading) *float64
}

var chartSeries = []series{
	{title: "River Level (ft)", value: func(r types.Reading) *float64 { return r.GageHeightFt }},
	{title: "Water Temp (°C)", value: func(r types.Reading) *float64 { return r.WaterTempC }},
	{title: "Air Temp (°C)", value: func(r types.Reading) *float64 { return r.AirTempC }},
	{title: "Wind (mph)", value: func(r types.Reading) *float64 { return r.WindMph }},
}

// BuildCharts returns one chart per series that has at least one value.
// Records must be sorted by timestamp; records without one are skipped.
func BuildCharts(records []types.StoredRecord) []Chart {
	var charts []Chart
	for _, s := range chartSeries {
		var times []time.Time
		var values []float64
		for _, rec := range records {
			v := s.value(rec.Reading)
			if v == nil || rec.Timestamp == nil {
				continue
			}
			times = append(times, *rec.Timestamp)
			values = append(values, *v)
		}
		if len(values) == 0 {
			continue
		}
		charts = append(charts, buildChart(s.title, times, values))
	}
	return charts
}

func buildChart(title string, times []time.Time, values []float64) Chart {
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}
	start, end := times[0], times[len(times)-1]
	span := end.Sub(start).Seconds()

	plotW := float64(chartWidth - 2*chartPadding)
	plotH := float64(chartHeight - 2*chartPadding)

	dots := make([]Point, 0, len(values))
	coords := make([]string, 0, len(values))
	for i, v := range values {
		x := chartPadding + plotW/2
		if span > 0 {
			x = chartPadding + plotW*times[i].Sub(start).Seconds()/span
		}
		y := chartPadding + plotH/2
		if maxV > minV {
			y = chartPadding + plotH*(maxV-v)/(maxV-minV)
		}
		p := Point{X: round1(x), Y: round1(y)}
		dots = append(dots, p)
		coords = append(coords, strconv.FormatFloat(p.X, 'f', -1, 64)+","+strconv.FormatFloat(p.Y, 'f', -1, 64))
	}

	return Chart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		Polyline: strings.Join(coords, " "),
		Dots:     dots,
		YMin:     units.FormatNumber(&minV, units.DefaultDecimals),
		YMax:     units.FormatNumber(&maxV, units.DefaultDecimals),
		XStart:   start.UTC().Format("Jan 2 15:04"),
		XEnd:     end.UTC().Format("Jan 2 15:04"),
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
