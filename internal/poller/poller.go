package poller

import (
	"context"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
)

const defaultInterval = 3 * time.Second

// FetchFunc loads the current state of a try-on job.
type FetchFunc func(ctx context.Context, jobID string) (*domain.TryOnJob, error)

// Poller watches a job record until it reaches a terminal status. This is
// the client side of the pipeline: it never writes, only reads.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   infra.Logger
}

// New constructs a poller with the given fetch function and interval.
func New(fetch FetchFunc, interval time.Duration, logger infra.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{fetch: fetch, interval: interval, logger: logger}
}

// Wait fetches the job on a fixed interval until its status is terminal
// (completed, error, or canceled) and returns the terminal record. A failed
// fetch is treated as "no update yet", not as a terminal outcome; only
// context cancellation stops the wait early.
func (p *Poller) Wait(ctx context.Context, jobID string) (*domain.TryOnJob, error) {
	for {
		job, err := p.fetch(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().Err(err).Str("job_id", jobID).Msg("poller: fetch failed, will retry")
		case job.Status.Terminal():
			p.logger.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("poller: job reached terminal status")
			return job, nil
		default:
			p.logger.Debug().Str("job_id", jobID).Str("status", string(job.Status)).Msg("poller: still waiting")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
