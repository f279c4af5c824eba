package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"review-analyzer/internal/domain"
)

const (
	panelWidth   = 700
	panelHeight  = 600
	headerHeight = 110
	titleSize    = 18
)

var (
	titleColor        = drawing.ColorFromHex("2c3e50")
	barColor          = drawing.ColorFromHex("3498db")
	satisfiedColor    = drawing.ColorFromHex("2ecc71")
	dissatisfiedColor = drawing.ColorFromHex("e74c3c")
)

// ErrNoData возвращается при попытке построить график по пустому отчёту.
var ErrNoData = errors.New("chart: report has no rows")

// Renderer строит PNG из двух панелей: гистограмма оценок и доля довольных.
type Renderer struct{}

var _ domain.ChartRenderer = Renderer{}

// NewRenderer создаёт рендерер отчёта.
func NewRenderer() Renderer {
	return Renderer{}
}

// Title возвращает заголовок отчёта в две строки.
func Title(r domain.Report) []string {
	return []string{
		fmt.Sprintf("Data Analytics Report for Product #%d", r.ProductID),
		fmt.Sprintf("Total Sampled Reviews: %d | NPS: %s", r.Total, domain.FormatNPS(r.NPS)),
	}
}

// Render строит изображение отчёта.
func (Renderer) Render(r domain.Report) ([]byte, error) {
	if r.Total == 0 {
		return nil, ErrNoData
	}
	header, err := renderHeader(Title(r))
	if err != nil {
		return nil, fmt.Errorf("chart header: %w", err)
	}
	hist, err := renderHistogram(r.Histogram)
	if err != nil {
		return nil, fmt.Errorf("chart histogram: %w", err)
	}
	pie, err := renderSatisfaction(r.SatisfactionCount, r.Dissatisfied())
	if err != nil {
		return nil, fmt.Errorf("chart satisfaction: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, 2*panelWidth, headerHeight+panelHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	for _, part := range []struct {
		img image.Image
		at  image.Point
	}{
		{header, image.Pt(0, 0)},
		{hist, image.Pt(0, headerHeight)},
		{pie, image.Pt(panelWidth, headerHeight)},
	} {
		rect := part.img.Bounds().Sub(part.img.Bounds().Min).Add(part.at)
		draw.Draw(canvas, rect, part.img, part.img.Bounds().Min, draw.Over)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("chart encode: %w", err)
	}
	return out.Bytes(), nil
}

func renderHeader(lines []string) (image.Image, error) {
	width := 2 * panelWidth
	r, err := chart.PNG(width, headerHeight)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, headerHeight)
	r.LineTo(0, headerHeight)
	r.Close()
	r.FillStroke()

	r.SetFont(font)
	r.SetFontColor(titleColor)
	r.SetFontSize(titleSize)
	for i, line := range lines {
		box := r.MeasureText(line)
		r.Text(line, (width-box.Width())/2, 45+i*40)
	}
	return decode(r.Save)
}

func renderHistogram(hist [domain.MaxScore]int) (image.Image, error) {
	maxCount := 0
	bars := make([]chart.Value, 0, len(hist))
	for i, count := range hist {
		if count > maxCount {
			maxCount = count
		}
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(i + 1),
			Value: float64(count),
			Style: chart.Style{FillColor: barColor, StrokeColor: drawing.ColorBlack, StrokeWidth: 1},
		})
	}
	if maxCount == 0 {
		return nil, ErrNoData
	}
	bc := chart.BarChart{
		Title:      "Distribution of Estimated Scores (1-10)",
		Width:      panelWidth,
		Height:     panelHeight,
		BarWidth:   40,
		BarSpacing: 18,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		Bars: bars,
	}
	return decode(func(w io.Writer) error { return bc.Render(chart.PNG, w) })
}

func renderSatisfaction(satisfied, dissatisfied int) (image.Image, error) {
	total := satisfied + dissatisfied
	if total == 0 {
		return nil, ErrNoData
	}
	var values []chart.Value
	if satisfied > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Satisfied %.1f%%", float64(satisfied)/float64(total)*100),
			Value: float64(satisfied),
			Style: chart.Style{FillColor: satisfiedColor, StrokeColor: drawing.ColorWhite, StrokeWidth: 2},
		})
	}
	if dissatisfied > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Dissatisfied %.1f%%", float64(dissatisfied)/float64(total)*100),
			Value: float64(dissatisfied),
			Style: chart.Style{FillColor: dissatisfiedColor, StrokeColor: drawing.ColorWhite, StrokeWidth: 2},
		})
	}
	pc := chart.PieChart{
		Title:  "Overall Customer Satisfaction",
		Width:  panelWidth,
		Height: panelHeight,
		Values: values,
	}
	return decode(func(w io.Writer) error { return pc.Render(chart.PNG, w) })
}

func decode(save func(io.Writer) error) (image.Image, error) {
	var buf bytes.Buffer
	if err := save(&buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}
