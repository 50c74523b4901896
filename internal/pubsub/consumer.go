package pubsub

import (
	"context"
	"log/slog"

	"github.com/monorepo-trigger/internal/dispatcher"
	"github.com/monorepo-trigger/internal/event"
)

// Dispatcher runs one invocation (e.g. dispatcher.Dispatcher).
type Dispatcher interface {
	Dispatch(ctx context.Context, trig event.Trigger) (*dispatcher.Result, error)
}

// Consumer runs dispatch jobs one at a time. The last-commit bookkeeping is
// only correct with a single in-flight invocation per branch, so main starts
// exactly one worker.
type Consumer struct {
	dispatcher Dispatcher
	jobs       <-chan DispatchJob
	log        *slog.Logger
}

// NewConsumer returns a consumer that reads jobs from the given channel.
func NewConsumer(d Dispatcher, jobs <-chan DispatchJob) *Consumer {
	return &Consumer{dispatcher: d, jobs: jobs, log: slog.Default()}
}

// Run processes jobs until ctx is cancelled or the channel is closed.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("consumer worker stopping")
			return
		case job, ok := <-c.jobs:
			if !ok {
				c.log.Debug("consumer jobs channel closed")
				return
			}
			c.process(ctx, job)
		}
	}
}

func (c *Consumer) process(ctx context.Context, job DispatchJob) {
	res, err := c.dispatcher.Dispatch(ctx, job.Trigger)
	if err != nil {
		c.log.Warn("dispatch failed", "source", job.Source, "repo", job.Trigger.Repository, "branch", job.Trigger.Branch, "commit", job.Trigger.Commit, "err", err)
	} else {
		c.log.Debug("dispatch done", "source", job.Source, "repo", res.Repository, "started", len(res.Started), "failed", len(res.Failed))
	}
	if job.Reply != nil {
		job.Reply <- Outcome{Result: res, Err: err}
	}
}
