// Package dispatcher decides which delivery pipelines a push must start.
//
// One call to Dispatch is one invocation:
//
//	received -> range resolved -> diffed -> directories extracted ->
//	pipelines resolved -> pipelines started -> commit recorded
//
// A fatal error at any step returns before the last-dispatched commit is
// recorded, so a redelivered push re-diffs the same range. Callers must not
// run two invocations for the same repository and branch concurrently.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/pipeline"
	"github.com/monorepo-trigger/internal/store"
	"github.com/monorepo-trigger/internal/vcs"
)

// Fatal error kinds. Each aborts the invocation before the state write.
var (
	ErrStateLookup     = errors.New("last commit lookup failed")
	ErrCommitLookup    = errors.New("commit lookup failed")
	ErrDiffRetrieval   = errors.New("diff retrieval failed")
	ErrConfigNotFound  = errors.New("pipeline map not found")
	ErrConfigMalformed = errors.New("pipeline map malformed")
	ErrConfigRetrieval = errors.New("pipeline map retrieval failed")
	ErrPipelineStart   = errors.New("pipeline start failed")
	ErrStateUpdate     = errors.New("last commit update failed")
)

// Result is the outcome of one invocation.
type Result struct {
	Repository  string   `json:"repository"`
	Branch      string   `json:"branch"`
	Commit      string   `json:"commit"`
	Before      string   `json:"before"`
	Directories []string `json:"directories"`
	Pipelines   []string `json:"pipelines"`
	Started     []string `json:"started"`
	Failed      []string `json:"failed"`
}

// Dispatcher wires the version-control service, the pipeline-execution
// service and the parameter store together.
type Dispatcher struct {
	repo    vcs.Service
	starter pipeline.Starter
	store   store.Store
	log     *slog.Logger
	newID   func() string
}

// New returns a Dispatcher using the given collaborators.
func New(repo vcs.Service, starter pipeline.Starter, st store.Store) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		starter: starter,
		store:   st,
		log:     slog.Default(),
		newID:   uuid.NewString,
	}
}

// WithLogger replaces the logger used for invocation logs.
func (d *Dispatcher) WithLogger(l *slog.Logger) *Dispatcher {
	d.log = l
	return d
}

// Handle parses a raw push notification and dispatches it.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) (*Result, error) {
	trig, err := event.Parse(raw)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, trig)
}

// Dispatch runs one invocation for trig.
func (d *Dispatcher) Dispatch(ctx context.Context, trig event.Trigger) (*Result, error) {
	log := d.log.With("invocation_id", d.newID(), "repo", trig.Repository, "branch", trig.Branch, "commit", trig.Commit)
	log.Info("dispatch started")

	before, err := d.resolveRange(ctx, log, trig)
	if err != nil {
		log.Error("resolve commit range", "err", err)
		return nil, err
	}

	diffs, err := d.differences(ctx, trig.Repository, before, trig.Commit)
	if err != nil {
		log.Error("get differences", "before", before, "err", err)
		return nil, err
	}
	dirs := TopLevelDirectories(ChangedPaths(diffs))
	log.Info("changes resolved", "before", before, "differences", len(diffs), "directories", dirs)

	m, err := d.loadMap(ctx, trig)
	if err != nil {
		log.Error("load pipeline map", "err", err)
		return nil, err
	}
	names := ResolvePipelines(dirs, m)
	log.Info("pipelines resolved", "pipelines", names)

	started, failed, err := d.startPipelines(ctx, log, names, trig)
	if err != nil {
		log.Error("start pipelines", "started", started, "err", err)
		return nil, err
	}

	if err := d.recordLastCommit(ctx, trig); err != nil {
		log.Error("record last commit", "err", err)
		return nil, err
	}
	log.Info("dispatch finished", "started", started, "failed", failed)

	return &Result{
		Repository:  trig.Repository,
		Branch:      trig.Branch,
		Commit:      trig.Commit,
		Before:      before,
		Directories: dirs,
		Pipelines:   names,
		Started:     started,
		Failed:      failed,
	}, nil
}

// Preview resolves the pipelines trig would start without starting them or
// recording state.
func (d *Dispatcher) Preview(ctx context.Context, trig event.Trigger) (*Result, error) {
	log := d.log.With("repo", trig.Repository, "branch", trig.Branch, "commit", trig.Commit, "preview", true)
	before, err := d.resolveRange(ctx, log, trig)
	if err != nil {
		return nil, err
	}
	diffs, err := d.differences(ctx, trig.Repository, before, trig.Commit)
	if err != nil {
		return nil, err
	}
	dirs := TopLevelDirectories(ChangedPaths(diffs))
	m, err := d.loadMap(ctx, trig)
	if err != nil {
		return nil, err
	}
	return &Result{
		Repository:  trig.Repository,
		Branch:      trig.Branch,
		Commit:      trig.Commit,
		Before:      before,
		Directories: dirs,
		Pipelines:   ResolvePipelines(dirs, m),
		Started:     []string{},
		Failed:      []string{},
	}, nil
}

func (d *Dispatcher) differences(ctx context.Context, repository, before, after string) ([]vcs.Difference, error) {
	diffs, err := d.repo.GetDifferences(ctx, repository, before, after)
	if err != nil {
		return nil, fmt.Errorf("%w: %s..%s: %w", ErrDiffRetrieval, before, after, err)
	}
	return diffs, nil
}
