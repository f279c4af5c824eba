package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/usecase/pipeline"
)

// logProgress пишет ход прогона в журнал задачи.
type logProgress struct {
	ctx    context.Context
	log    domain.ProgressLog
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	status domain.JobStatus
}

var _ domain.Progress = (*logProgress)(nil)

func (p *logProgress) Step(message string) {
	if err := p.log.Append(p.ctx, p.status.JobID, message); err != nil {
		p.logger.Debug().Err(err).Msg("jobs: строка журнала потеряна")
	}
}

func (p *logProgress) Advance(done, total int) {
	p.mu.Lock()
	p.status.Percent = pipeline.Percent(done, total)
	p.status.Analyzed = done
	p.status.UpdatedAt = p.now().UTC()
	status := p.status
	p.mu.Unlock()

	if err := p.log.SetStatus(p.ctx, status); err != nil {
		p.logger.Debug().Err(err).Msg("jobs: не удалось обновить процент")
	}
}

func (p *logProgress) snapshot() domain.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
