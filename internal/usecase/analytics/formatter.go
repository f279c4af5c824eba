package analytics

import (
	"fmt"
	"html"
	"strings"

	"review-analyzer/internal/domain"
)

// FormatReport формирует текстовую сводку отчёта в HTML-разметке Telegram.
func FormatReport(r domain.Report) string {
	var sections []string

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = domain.FallbackTitle(r.ProductID)
	}
	sections = append(sections, fmt.Sprintf("🛍️ <b>%s</b>\nТовар #%d", html.EscapeString(title), r.ProductID))

	if r.Total == 0 {
		sections = append(sections, "Нет проанализированных отзывов.")
		return strings.Join(sections, "\n\n")
	}

	var metricsBuilder strings.Builder
	metricsBuilder.WriteString("📊 <b>Итоги</b>\n")
	metricsBuilder.WriteString(fmt.Sprintf("- NPS: %s\n", domain.FormatNPS(r.NPS)))
	metricsBuilder.WriteString(fmt.Sprintf("- Проанализировано отзывов: %d\n", r.Total))
	metricsBuilder.WriteString(fmt.Sprintf("- Довольных: %d (%s)\n", r.SatisfactionCount, percent(r.SatisfactionCount, r.Total)))
	metricsBuilder.WriteString(fmt.Sprintf("- Недовольных: %d (%s)", r.Dissatisfied(), percent(r.Dissatisfied(), r.Total)))
	sections = append(sections, metricsBuilder.String())

	if hist := formatHistogram(r.Histogram); hist != "" {
		sections = append(sections, hist)
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}


func formatHistogram(hist [domain.MaxScore]int) string {
	var b strings.Builder
	for i, count := range hist {
		if count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%2d │ %s %d\n", i+1, strings.Repeat("▇", barLength(count, hist)), count))
	}
	if b.Len() == 0 {
		return ""
	}
	return "📈 <b>Распределение оценок</b>\n<pre>" + strings.TrimRight(b.String(), "\n") + "</pre>"
}

func barLength(count int, hist [domain.MaxScore]int) int {
	const width = 20
	maxCount := 0
	for _, c := range hist {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return 0
	}
	n := count * width / maxCount
	if n == 0 {
		n = 1
	}
	return n
}

func percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
