package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"horizonscan/internal/ports"
)

// CronScheduler runs the scan job on a standard 5-field cron expression.
type CronScheduler struct {
	spec string
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression
// string, evaluated in the given location.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	return &CronScheduler{
		spec: spec,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
	}
}

// Start registers the job and begins the cron loop.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job, honoring the
// caller's deadline.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
