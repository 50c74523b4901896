// Package pipeline describes the pipeline-execution service and the fixed
// catalog of delivery pipelines deployed next to the monorepo.
package pipeline

//go:generate go run go.uber.org/mock/mockgen -destination pipeline_mock.gen.go -package pipeline . Starter

import (
	"context"
	"errors"

	"github.com/monorepo-trigger/internal/event"
)

// ErrNotFound is returned by a Starter when no pipeline has the given name.
var ErrNotFound = errors.New("pipeline not found")

// Starter starts pipeline executions by name.
type Starter interface {
	// StartPipeline starts one execution of the named pipeline. trig is the
	// push that caused the start. Returns ErrNotFound for unknown names.
	StartPipeline(ctx context.Context, name string, trig event.Trigger) error
}
