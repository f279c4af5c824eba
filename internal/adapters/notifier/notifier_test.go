package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
)

func TestSplitMessageRespectsLimit(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("a", 3000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("b", 2000))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("c", 500))

	parts := SplitMessage(builder.String())
	if len(parts) != 2 {
		t.Fatalf("ожидали 2 части, получили %d", len(parts))
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > messageLimit {
			t.Fatalf("часть %d превышает лимит: %d", i, length)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("неожиданное содержимое первой части")
	}
	if !strings.HasPrefix(parts[1], "b") || !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("неожиданное содержимое второй части")
	}
}

func TestSplitMessageWithoutNewlines(t *testing.T) {
	parts := splitText(strings.Repeat("ж", 25), 10)
	if len(parts) != 3 || len([]rune(parts[2])) != 5 {
		t.Fatalf("ожидали разрез по лимиту, получили %q", parts)
	}
	if SplitMessage("   ") != nil {
		t.Fatalf("пустой текст не должен давать частей")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("короткий", 20); got != "короткий" {
		t.Fatalf("неожиданно обрезан текст %q", got)
	}
	if got := truncate(strings.Repeat("x", 30), 10); len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("неверное усечение %q", got)
	}
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestNotifyReport(t *testing.T) {
	bot := &fakeBot{}
	format := func(r domain.Report) string { return "сводка" }
	n := NewTelegram(bot, 42, format, zerolog.Nop())

	report := domain.Report{ProductID: 17588414, Title: "گوشی", Total: 100, NPS: 100}
	if err := n.NotifyReport(context.Background(), report, []byte("png")); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("ожидали фото и текст, отправлено %d", len(bot.sent))
	}
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("первым должно идти фото, получили %T", bot.sent[0])
	}
	if photo.ChatID != 42 || !strings.Contains(photo.Caption, "NPS 100.0") {
		t.Fatalf("неверное фото: chat=%d caption=%q", photo.ChatID, photo.Caption)
	}
	msg, ok := bot.sent[1].(tgbotapi.MessageConfig)
	if !ok || msg.Text != "сводка" || msg.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("неверное текстовое сообщение: %+v", bot.sent[1])
	}

	bot.sent = nil
	if err := n.NotifyReport(context.Background(), report, nil); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("без графика отправляется только текст, отправлено %d", len(bot.sent))
	}
}

func TestNotifyReportSendError(t *testing.T) {
	sendErr := errors.New("forbidden")
	n := NewTelegram(&fakeBot{err: sendErr}, 1, func(domain.Report) string { return "x" }, zerolog.Nop())
	if err := n.NotifyReport(context.Background(), domain.Report{}, nil); !errors.Is(err, sendErr) {
		t.Fatalf("ожидали ошибку отправки, получили %v", err)
	}
}
