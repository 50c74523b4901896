package pubsub

import (
	"context"
	"errors"

	"github.com/monorepo-trigger/internal/dispatcher"
	"github.com/monorepo-trigger/internal/event"
)

// ErrQueueFull is returned by Submit when the job channel has no free slot.
var ErrQueueFull = errors.New("dispatch queue full")

// DispatchJob is a unit of work for the consumer: run one invocation for Trigger.
type DispatchJob struct {
	Trigger event.Trigger
	Source  string
	// Reply, when set, receives the outcome. It must be buffered.
	Reply chan<- Outcome
}

// Outcome is the result of one job.
type Outcome struct {
	Result *dispatcher.Result
	Err    error
}

// Submit enqueues a job without blocking and waits for its outcome.
func Submit(ctx context.Context, jobs chan<- DispatchJob, trig event.Trigger, source string) (*dispatcher.Result, error) {
	reply := make(chan Outcome, 1)
	select {
	case jobs <- DispatchJob{Trigger: trig, Source: source, Reply: reply}:
	default:
		return nil, ErrQueueFull
	}
	select {
	case out := <-reply:
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
