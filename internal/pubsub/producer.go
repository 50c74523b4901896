package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/github"
)

// Producer polls repository events and enqueues a dispatch job for every new
// branch push. Seen event IDs are kept in memory only; the first poll of a
// repository records what it sees without enqueueing, so historical pushes
// are never replayed on startup.
type Producer struct {
	fetcher      github.EventsFetcher
	repositories []string
	jobs         chan<- DispatchJob
	pollInterval time.Duration
	log          *slog.Logger

	etags map[string]string
	seen  map[string]map[string]struct{}
}

// NewProducer returns a producer that sends jobs to the given channel.
// pollInterval is the delay between rounds (e.g. from POLL_INTERVAL_SEC).
func NewProducer(f github.EventsFetcher, repositories []string, jobs chan<- DispatchJob, pollInterval time.Duration) *Producer {
	return &Producer{
		fetcher:      f,
		repositories: repositories,
		jobs:         jobs,
		pollInterval: pollInterval,
		log:          slog.Default(),
		etags:        make(map[string]string),
		seen:         make(map[string]map[string]struct{}),
	}
}

// Run polls until ctx is cancelled. Uses the bounded channel for backpressure.
func (p *Producer) Run(ctx context.Context) {
	p.log.Info("producer running", "poll_interval", p.pollInterval, "repositories", p.repositories)
	for {
		for _, repo := range p.repositories {
			if !p.poll(ctx, repo) {
				p.log.Info("producer stopping")
				return
			}
		}
		select {
		case <-ctx.Done():
			p.log.Info("producer stopping")
			return
		case <-time.After(p.pollInterval):
		}
	}
}

// poll fetches one repository and enqueues its new pushes. Returns false when
// ctx was cancelled.
func (p *Producer) poll(ctx context.Context, repo string) bool {
	events, newEtag, err := p.fetcher.FetchRepoEvents(ctx, repo, p.etags[repo])
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.log.Warn("fetch events", "repo", repo, "err", err)
		return true
	}
	p.etags[repo] = newEtag
	if events == nil {
		return true
	}

	prev, primed := p.seen[repo]
	current := make(map[string]struct{}, len(events))
	for _, e := range events {
		current[e.ID] = struct{}{}
	}
	p.seen[repo] = current
	if !primed {
		p.log.Info("events primed", "repo", repo, "count", len(events))
		return true
	}

	// The API lists newest first.
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if _, ok := prev[e.ID]; ok {
			continue
		}
		trig, ok := p.trigger(repo, &e)
		if !ok {
			continue
		}
		p.log.Info("push event received", "event_id", e.ID, "repo", repo, "branch", trig.Branch, "commit", trig.Commit)
		select {
		case p.jobs <- DispatchJob{Trigger: trig, Source: "poll"}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (p *Producer) trigger(repo string, e *github.Event) (event.Trigger, bool) {
	if e.Type != "PushEvent" {
		return event.Trigger{}, false
	}
	payload := new(github.PushEventPayload)
	if err := json.Unmarshal(e.RawPayload, payload); err != nil {
		p.log.Warn("parse push payload", "id", e.ID, "err", err)
		return event.Trigger{}, false
	}
	if !strings.HasPrefix(payload.Ref, "refs/heads/") || payload.Head == "" {
		return event.Trigger{}, false
	}
	return event.Trigger{Repository: repo, Branch: event.BranchName(payload.Ref), Commit: payload.Head}, true
}
