package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/store"
)

// ParameterName is the parameter-store key holding the last dispatched commit
// of a repository branch.
func ParameterName(repository, branch string) string {
	return fmt.Sprintf("/MonoRepoTrigger/%s/%s/LastCommit", repository, branch)
}

// lastCommit returns the recorded commit for the trigger's branch. ok is false
// when nothing has been recorded yet.
func (d *Dispatcher) lastCommit(ctx context.Context, trig event.Trigger) (commit string, ok bool, err error) {
	name := ParameterName(trig.Repository, trig.Branch)
	v, err := d.store.GetParameter(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %w", ErrStateLookup, name, err)
	}
	return v, true, nil
}

func (d *Dispatcher) recordLastCommit(ctx context.Context, trig event.Trigger) error {
	name := ParameterName(trig.Repository, trig.Branch)
	if err := d.store.PutParameter(ctx, name, trig.Commit); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStateUpdate, name, err)
	}
	return nil
}

// resolveRange returns the commit to diff trig.Commit against. Without a
// recorded commit it falls back to the first parent of the pushed commit, so
// a first dispatch only covers that single commit. A root commit yields "".
func (d *Dispatcher) resolveRange(ctx context.Context, log *slog.Logger, trig event.Trigger) (string, error) {
	last, ok, err := d.lastCommit(ctx, trig)
	if err != nil {
		return "", err
	}
	if ok {
		return last, nil
	}
	log.Info("no last commit recorded, using parent", "parameter", ParameterName(trig.Repository, trig.Branch))

	c, err := d.repo.GetCommit(ctx, trig.Repository, trig.Commit)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCommitLookup, trig.Commit, err)
	}
	return c.FirstParent(), nil
}
