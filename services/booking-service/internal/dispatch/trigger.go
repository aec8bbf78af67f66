package dispatch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger calls fn on its own schedule until ctx is cancelled.
type Trigger interface {
	Start(ctx context.Context, fn func(ctx context.Context)) error
}

// CronTrigger fires on a fixed interval. A run that is still busy when the next one is due
// makes cron skip that run.
type CronTrigger struct {
	every time.Duration
}

func NewCronTrigger(every time.Duration) *CronTrigger {
	if every < time.Second {
		every = time.Second
	}
	return &CronTrigger{every: every}
}

func (t *CronTrigger) Start(ctx context.Context, fn func(ctx context.Context)) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(cron.Every(t.every), cron.FuncJob(func() { fn(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (t *CronTrigger) Interval() time.Duration {
	return t.every
}
