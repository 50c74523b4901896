package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/monorepo-trigger/internal/event"
)

// DryRun is a Starter that only logs starts. Names outside its catalog are
// reported as not found, mirroring a real execution service.
type DryRun struct {
	catalog Catalog
	log     *slog.Logger
}

// NewDryRun returns a Starter that accepts the pipelines in c.
func NewDryRun(c Catalog) *DryRun {
	return &DryRun{catalog: c, log: slog.Default()}
}

// StartPipeline implements Starter.
func (d *DryRun) StartPipeline(ctx context.Context, name string, trig event.Trigger) error {
	if !d.catalog.Has(name) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	d.log.Info("dry-run pipeline start", "pipeline", name, "repo", trig.Repository, "branch", trig.Branch, "commit", trig.Commit)
	return nil
}
