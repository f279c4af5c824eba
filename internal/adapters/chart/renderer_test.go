package chart

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"review-analyzer/internal/domain"
)

func TestRender(t *testing.T) {
	cases := map[string]domain.Report{
		"mixed": {
			ProductID:         17588414,
			Total:             5,
			NPS:               20,
			SatisfactionCount: 3,
			Histogram:         [domain.MaxScore]int{1, 0, 0, 0, 0, 1, 0, 0, 1, 2},
		},
		"all satisfied": {
			ProductID:         1,
			Total:             4,
			NPS:               100,
			SatisfactionCount: 4,
			Histogram:         [domain.MaxScore]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 4},
		},
		"flat histogram": {
			ProductID:         2,
			Total:             10,
			NPS:               -40,
			SatisfactionCount: 0,
			Histogram:         [domain.MaxScore]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		},
	}
	for name, report := range cases {
		data, err := NewRenderer().Render(report)
		if err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", name, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: результат не PNG: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 2*panelWidth || b.Dy() != headerHeight+panelHeight {
			t.Fatalf("%s: неожиданный размер %v", name, b)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	if _, err := NewRenderer().Render(domain.Report{ProductID: 1}); !errors.Is(err, ErrNoData) {
		t.Fatalf("ожидали ErrNoData, получили %v", err)
	}
}

func TestTitle(t *testing.T) {
	lines := Title(domain.Report{ProductID: 17588414, Total: 100, NPS: 100})
	if lines[0] != "Data Analytics Report for Product #17588414" {
		t.Fatalf("неожиданный заголовок %q", lines[0])
	}
	if lines[1] != "Total Sampled Reviews: 100 | NPS: 100.0" {
		t.Fatalf("неожиданный подзаголовок %q", lines[1])
	}
}
