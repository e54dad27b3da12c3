// Package render draws the chart state as an image.
package render

import (
	"bytes"
	"errors"
	"fmt"

	sc "signal_chart"
	"signal_chart/internal/chart"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToDraw is returned when every wedge is empty.
var ErrNothingToDraw = errors.New("nothing to draw")

const (
	DefaultWidth  = 480
	DefaultHeight = 480
)

// Palette maps each signal to its wedge color.
var Palette = map[sc.Signal]drawing.Color{
	sc.Green:  {R: 46, G: 204, B: 113, A: 255},
	sc.Yellow: {R: 241, G: 196, B: 15, A: 255},
	sc.Red:    {R: 231, G: 76, B: 60, A: 255},
	sc.Black:  {R: 33, G: 33, B: 33, A: 255},
}

// PieChartPNG renders cumulative fills (in PresentationOrder) as a PNG pie.
func PieChartPNG(fills [4]float64, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	values := pieValues(chart.Shares(fills))
	if len(values) == 0 {
		return nil, ErrNothingToDraw
	}

	pie := gochart.PieChart{
		Width:  width,
		Height: height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie: %w", err)
	}
	return buf.Bytes(), nil
}

// pieValues drops empty wedges; go-chart rejects zero-valued slices.
func pieValues(shares [4]float64) []gochart.Value {
	out := make([]gochart.Value, 0, len(shares))
	for i, s := range sc.PresentationOrder {
		if !(shares[i] > 0) {
			continue
		}
		col := Palette[s]
		out = append(out, gochart.Value{
			Value: shares[i],
			Label: string(s),
			Style: gochart.Style{
				FillColor:   col,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontColor:   drawing.ColorWhite,
			},
		})
	}
	return out
}
