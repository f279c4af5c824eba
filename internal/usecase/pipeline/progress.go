package pipeline

import (
	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
)

// NopProgress игнорирует сообщения о ходе прогона.
type NopProgress struct{}

func (NopProgress) Step(string) {}

func (NopProgress) Advance(int, int) {}

// LogProgress пишет ход прогона в лог.
type LogProgress struct {
	logger zerolog.Logger
}

var _ domain.Progress = (*LogProgress)(nil)

// NewLogProgress создаёт приёмник прогресса для CLI.
func NewLogProgress(logger zerolog.Logger) *LogProgress {
	return &LogProgress{logger: logger}
}

// Step выводит строку шага.
func (p *LogProgress) Step(message string) {
	p.logger.Info().Msg(message)
}

// Advance выводит процент выполнения.
func (p *LogProgress) Advance(done, total int) {
	p.logger.Debug().Int("done", done).Int("total", total).Int("percent", Percent(done, total)).Msg("progress")
}

// Percent возвращает долю выполненного в процентах.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}
