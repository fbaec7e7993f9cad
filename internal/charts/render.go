package charts

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format selects the image encoding
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat maps a file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case PNG, SVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType returns the MIME type of the encoded image
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

const (
	DefaultWidth  = 900
	DefaultHeight = 420

	barSpacing = 4
	minBar     = 3
)

var barStyle = chart.Style{
	FillColor:   drawing.ColorFromHex("636efa"),
	StrokeColor: drawing.ColorFromHex("636efa"),
	StrokeWidth: 1,
}

// Render draws c as a bar chart. An empty chart renders a blank canvas
// carrying a notice rather than failing.
func Render(w io.Writer, c BarChart, format Format, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	if c.Empty() {
		return renderEmpty(w, c, format, width, height)
	}

	bars := make([]chart.Value, len(c.Bars))
	for i, b := range c.Bars {
		bars[i] = chart.Value{Label: b.Label, Value: float64(b.Count), Style: barStyle}
	}

	barWidth := (width-120)/len(bars) - barSpacing
	if barWidth < minBar {
		barWidth = minBar
	}

	graph := chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{Hidden: len(bars) > 36},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(c.MaxCount())},
		},
		Bars: bars,
	}

	if err := graph.Render(format.provider(), w); err != nil {
		return fmt.Errorf("error rendering bar chart: %w", err)
	}
	return nil
}

func renderEmpty(w io.Writer, c BarChart, format Format, width, height int) error {
	r, err := format.provider()(width, height)
	if err != nil {
		return fmt.Errorf("error creating chart renderer: %w", err)
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("error loading chart font: %w", err)
	}
	r.SetFont(font)
	r.SetFontColor(drawing.ColorBlack)
	r.SetFontSize(14)

	notice := "No disruptions for this selection"
	if c.Title != "" {
		notice = c.Title + ": no disruptions"
	}
	box := r.MeasureText(notice)
	r.Text(notice, (width-box.Width())/2, height/2)

	return r.Save(w)
}
