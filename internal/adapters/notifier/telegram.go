package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Formatter превращает отчёт в HTML-текст сообщения.
type Formatter func(domain.Report) string

// Telegram отправляет отчёт в чат: сначала график, затем текстовую сводку.
type Telegram struct {
	bot    sender
	chatID int64
	format Formatter
	logger zerolog.Logger
}

var _ domain.Notifier = (*Telegram)(nil)

// NewTelegram создаёт уведомитель поверх готового клиента бота.
func NewTelegram(bot sender, chatID int64, format Formatter, logger zerolog.Logger) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		format: format,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// NewTelegramFromToken авторизует бота по токену.
func NewTelegramFromToken(token string, chatID int64, format Formatter, logger zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegram(bot, chatID, format, logger), nil
}

// NotifyReport публикует отчёт.
func (t *Telegram) NotifyReport(ctx context.Context, report domain.Report, chart []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chart) > 0 {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{Name: domain.DownloadName(report.ProductID), Bytes: chart})
		photo.Caption = truncate(caption(report), captionLimit)
		if err := t.send(photo, "send_photo"); err != nil {
			return err
		}
	}
	for _, part := range SplitMessage(t.format(report)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if err := t.send(msg, "send_message"); err != nil {
			return err
		}
	}
	t.logger.Info().Int64("product_id", int64(report.ProductID)).Int64("chat_id", t.chatID).Msg("notifier: отчёт отправлен")
	return nil
}

func (t *Telegram) send(c tgbotapi.Chattable, op string) error {
	start := time.Now()
	_, err := t.bot.Send(c)
	metrics.ObserveNetworkRequest("telegram", op, "chat", start, err)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", op, err)
	}
	return nil
}

func caption(r domain.Report) string {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = domain.FallbackTitle(r.ProductID)
	}
	return fmt.Sprintf("%s · NPS %s · %d reviews", title, domain.FormatNPS(r.NPS), r.Total)
}
