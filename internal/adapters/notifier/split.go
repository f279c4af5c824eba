package notifier

import "strings"

const (
	messageLimit = 4096
	captionLimit = 1024
)

// SplitMessage разбивает текст на части в пределах лимита сообщения Telegram.
func SplitMessage(text string) []string {
	return splitText(text, messageLimit)
}

// splitText режет текст на куски не длиннее limit рун, предпочитая границы строк.
func splitText(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return []string{trimmed}
	}

	var parts []string
	appendChunk := func(r []rune) {
		if chunk := strings.Trim(string(r), "\n"); chunk != "" {
			parts = append(parts, chunk)
		}
	}
	start := 0
	for len(runes)-start > limit {
		end := start + limit
		split := end
		for i := end; i > start; i-- {
			if runes[i-1] == '\n' {
				split = i
				break
			}
		}
		appendChunk(runes[start:split])
		start = split
		for start < len(runes) && runes[start] == '\n' {
			start++
		}
	}
	appendChunk(runes[start:])

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}

// truncate обрезает текст до limit рун.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
