package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/pipeline"
)

// startPipelines starts each name once. Unknown pipelines are collected in
// failed; any other error stops the remaining starts.
func (d *Dispatcher) startPipelines(ctx context.Context, log *slog.Logger, names []string, trig event.Trigger) (started, failed []string, err error) {
	started = []string{}
	failed = []string{}
	for _, name := range names {
		err := d.starter.StartPipeline(ctx, name, trig)
		switch {
		case err == nil:
			log.Info("pipeline started", "pipeline", name)
			started = append(started, name)
		case errors.Is(err, pipeline.ErrNotFound):
			log.Warn("pipeline not found", "pipeline", name)
			failed = append(failed, name)
		default:
			return started, failed, fmt.Errorf("%w: %s: %w", ErrPipelineStart, name, err)
		}
	}
	return started, failed, nil
}
