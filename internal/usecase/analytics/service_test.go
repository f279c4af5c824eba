package analytics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
)

func rowsWithScores(scores ...int) []domain.ReviewRow {
	rows := make([]domain.ReviewRow, 0, len(scores))
	for i, s := range scores {
		rows = append(rows, domain.ReviewRow{ID: int64(i + 1), EstimatedScore: s, IsSatisfied: s >= 7})
	}
	return rows
}

func repeat(score, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = score
	}
	return out
}

func TestCalculateNPS(t *testing.T) {
	cases := []struct {
		name   string
		scores []int
		want   float64
	}{
		{"empty", nil, 0},
		{"all promoters", []int{9, 10, 10, 9}, 100},
		{"all detractors", []int{1, 6, 3}, -100},
		{"passives only", []int{7, 8}, 0},
		{"mixed", []int{10, 9, 7, 5}, 25},
		{"rounding", []int{10, 1, 8}, 0},
		{"thirds", []int{10, 7, 8}, 33.33},
		{"tie", append([]int{10}, repeat(7, 31)...), 3.12},
		{"negative tie", append([]int{1}, repeat(7, 31)...), -3.12},
	}
	for _, tc := range cases {
		if got := CalculateNPS(rowsWithScores(tc.scores...)); got != tc.want {
			t.Fatalf("%s: ожидали %v, получили %v", tc.name, tc.want, got)
		}
	}
}

func TestSatisfactionCountAndHistogram(t *testing.T) {
	rows := rowsWithScores(10, 10, 3, 7, 1)
	if got := SatisfactionCount(rows); got != 3 {
		t.Fatalf("ожидали 3 довольных, получили %d", got)
	}
	hist := Histogram(rows)
	if hist[9] != 2 || hist[2] != 1 || hist[6] != 1 || hist[0] != 1 {
		t.Fatalf("неверная гистограмма: %v", hist)
	}
}

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Render(domain.Report) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

type memStore struct {
	files map[string][]byte
	err   error
}

func (m *memStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[name] = data
	return "mem://" + name, nil
}

func (m *memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestBuildReport(t *testing.T) {
	renderer := &fakeRenderer{}
	store := &memStore{}
	svc := NewService(renderer, store, zerolog.Nop())

	report, err := svc.BuildReport(context.Background(), 17588414, "گوشی", rowsWithScores(10, 10, 9))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.NPS != 100 || report.Total != 3 || report.SatisfactionCount != 3 {
		t.Fatalf("неверный отчёт: %+v", report)
	}
	if report.ChartName != "analytics_product_17588414.png" || report.ChartLocation != "mem://analytics_product_17588414.png" {
		t.Fatalf("неверное имя графика: %q %q", report.ChartName, report.ChartLocation)
	}
	if _, ok := store.files["analytics_product_17588414.png"]; !ok {
		t.Fatalf("график не сохранён")
	}
}

func TestBuildReportEmpty(t *testing.T) {
	renderer := &fakeRenderer{}
	svc := NewService(renderer, &memStore{}, zerolog.Nop())

	report, err := svc.BuildReport(context.Background(), 1, "", nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if renderer.calls != 0 {
		t.Fatalf("для пустого набора график не строится")
	}
	if report.NPS != 0 || report.ChartLocation != "" {
		t.Fatalf("неверный пустой отчёт: %+v", report)
	}
}

func TestBuildReportFailures(t *testing.T) {
	renderErr := errors.New("font missing")
	report, err := NewService(&fakeRenderer{err: renderErr}, &memStore{}, zerolog.Nop()).
		BuildReport(context.Background(), 1, "", rowsWithScores(1))
	if !errors.Is(err, renderErr) {
		t.Fatalf("ожидали ошибку рендера, получили %v", err)
	}
	if report.NPS != -100 {
		t.Fatalf("отчёт должен быть посчитан и при ошибке: %+v", report)
	}

	saveErr := errors.New("disk full")
	_, err = NewService(&fakeRenderer{}, &memStore{err: saveErr}, zerolog.Nop()).
		BuildReport(context.Background(), 1, "", rowsWithScores(1))
	if !errors.Is(err, saveErr) {
		t.Fatalf("ожидали ошибку сохранения, получили %v", err)
	}
}

func TestFormatReport(t *testing.T) {
	report := domain.Report{
		ProductID:         5,
		Title:             "Кружка <XL>",
		Total:             4,
		NPS:               25,
		SatisfactionCount: 3,
		Histogram:         [domain.MaxScore]int{0, 0, 0, 0, 1, 0, 1, 0, 1, 1},
	}
	formatted := FormatReport(report)
	mustContain(t, formatted, "<b>Кружка &lt;XL&gt;</b>")
	mustContain(t, formatted, "NPS: 25")
	mustContain(t, formatted, "Довольных: 3 (75.0%)")
	mustContain(t, formatted, "Недовольных: 1 (25.0%)")
	mustContain(t, formatted, "<pre>")

	empty := FormatReport(domain.Report{ProductID: 9})
	mustContain(t, empty, "Product #9")
	mustContain(t, empty, "Нет проанализированных отзывов.")
}

func TestFormatReportWholeNPS(t *testing.T) {
	formatted := FormatReport(domain.Report{ProductID: 1, Total: 2, NPS: 100, SatisfactionCount: 2})
	mustContain(t, formatted, "NPS: 100.0\n")
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
