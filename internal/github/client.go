package github

//go:generate go run go.uber.org/mock/mockgen -destination client_mock.gen.go -package github . EventsFetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/pipeline"
	"github.com/monorepo-trigger/internal/vcs"
)

const apiURL = "https://api.github.com"

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
)

// EventsFetcher fetches repository events (used by the poller).
type EventsFetcher interface {
	FetchRepoEvents(ctx context.Context, repository, etag string) (events []Event, newEtag string, err error)
}

// Client talks to the GitHub REST API. It implements vcs.Service,
// pipeline.Starter (workflow_dispatch) and the repository events feed used
// by the poller. Repositories are resolved under a single owner.
// BaseURL is optional; when set (e.g. in tests) it replaces the default API host.
type Client struct {
	httpClient *http.Client
	token      string
	owner      string
	BaseURL    string // for tests: e.g. httptest.Server.URL
	log        *slog.Logger
	sleep      func(time.Duration)
}

// NewClient returns a GitHub API client for repositories of owner. token is
// optional for reads but required to dispatch workflows.
func NewClient(token, owner string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		owner:      owner,
		log:        slog.Default(),
		sleep:      time.Sleep,
	}
}

func (c *Client) url(format string, args ...any) string {
	base := apiURL
	if c.BaseURL != "" {
		base = strings.TrimSuffix(c.BaseURL, "/")
	}
	return base + fmt.Sprintf(format, args...)
}

// GetCommit implements vcs.Service.
func (c *Client) GetCommit(ctx context.Context, repository, commitID string) (*vcs.Commit, error) {
	var api commitResponse
	u := c.url("/repos/%s/%s/commits/%s", c.owner, repository, url.PathEscape(commitID))
	if err := c.getJSON(ctx, u, &api); err != nil {
		return nil, c.vcsError("get commit "+commitID, err)
	}
	parents := make([]string, 0, len(api.Parents))
	for _, p := range api.Parents {
		parents = append(parents, p.SHA)
	}
	return &vcs.Commit{ID: api.SHA, Parents: parents}, nil
}

// GetDifferences implements vcs.Service. With an empty before it returns the
// files changed by the after commit itself. Otherwise it uses GitHub's
// three-dot compare, which diffs after against the merge base of the two
// commits rather than against before's tree. The two agree whenever before is
// an ancestor of after; after a force-push that rewrote before away, only the
// changes since the merge base are reported. Only the first page is read:
// GitHub caps the files list of a single response.
func (c *Client) GetDifferences(ctx context.Context, repository, before, after string) ([]vcs.Difference, error) {
	var files []changedFile
	if before == "" {
		var api commitResponse
		u := c.url("/repos/%s/%s/commits/%s", c.owner, repository, url.PathEscape(after))
		if err := c.getJSON(ctx, u, &api); err != nil {
			return nil, c.vcsError("get commit files "+after, err)
		}
		files = api.Files
	} else {
		var api compareResponse
		u := c.url("/repos/%s/%s/compare/%s...%s", c.owner, repository, url.PathEscape(before), url.PathEscape(after))
		if err := c.getJSON(ctx, u, &api); err != nil {
			return nil, c.vcsError("compare "+before+"..."+after, err)
		}
		files = api.Files
	}
	diffs := make([]vcs.Difference, 0, len(files))
	for _, f := range files {
		diffs = append(diffs, toDifference(f))
	}
	return diffs, nil
}

func toDifference(f changedFile) vcs.Difference {
	switch f.Status {
	case "added", "copied":
		return vcs.Difference{After: &vcs.Blob{Path: f.Filename}}
	case "removed":
		return vcs.Difference{Before: &vcs.Blob{Path: f.Filename}}
	case "renamed":
		prev := f.PreviousFilename
		if prev == "" {
			prev = f.Filename
		}
		return vcs.Difference{Before: &vcs.Blob{Path: prev}, After: &vcs.Blob{Path: f.Filename}}
	default:
		return vcs.Difference{Before: &vcs.Blob{Path: f.Filename}, After: &vcs.Blob{Path: f.Filename}}
	}
}

// GetFile implements vcs.Service using the raw contents media type.
func (c *Client) GetFile(ctx context.Context, repository, ref, path string) ([]byte, error) {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := c.url("/repos/%s/%s/contents/%s?ref=%s", c.owner, repository, strings.Join(segments, "/"), url.QueryEscape(ref))
	body, err := c.do(ctx, http.MethodGet, u, nil, "application/vnd.github.raw+json")
	if err != nil {
		return nil, c.vcsError("get file "+path+"@"+ref, err)
	}
	return body, nil
}

// StartPipeline implements pipeline.Starter by dispatching the workflow named
// name (file name or numeric ID) on the pushed branch.
func (c *Client) StartPipeline(ctx context.Context, name string, trig event.Trigger) error {
	u := c.url("/repos/%s/%s/actions/workflows/%s/dispatches", c.owner, trig.Repository, url.PathEscape(name))
	_, err := c.do(ctx, http.MethodPost, u, workflowDispatchRequest{Ref: trig.Branch}, "application/vnd.github+json")
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("workflow %s in %s/%s: %w", name, c.owner, trig.Repository, pipeline.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("dispatch workflow %s: %w", name, err)
	}
	return nil
}

// FetchRepoEvents fetches the public events of repository. If etag is
// non-empty, sends If-None-Match; on 304 returns nil, newEtag, nil.
func (c *Client) FetchRepoEvents(ctx context.Context, repository, etag string) ([]Event, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/repos/%s/%s/events", c.owner, repository), nil)
	if err != nil {
		return nil, "", err
	}
	c.setAuth(req)
	if etag != "" {
		req.Header.Set("If-None-Match", `"`+etag+`"`)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	newEtag := strings.TrimPrefix(resp.Header.Get("ETag"), "W/")
	newEtag = strings.Trim(newEtag, `"`)

	switch resp.StatusCode {
	case http.StatusNotModified:
		return nil, newEtag, nil
	case http.StatusNotFound:
		return nil, newEtag, ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, newEtag, ErrRateLimited
	case http.StatusOK:
		var events []Event
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return nil, newEtag, err
		}
		return events, newEtag, nil
	default:
		return nil, newEtag, fmt.Errorf("events API: %s", resp.Status)
	}
}

func (c *Client) vcsError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, vcs.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.do(ctx, http.MethodGet, u, nil, "application/vnd.github+json")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// do performs one API call. It waits out a short rate-limit window once and
// retries 5xx responses up to three times with exponential backoff.
func (c *Client) do(ctx context.Context, method, u string, payload any, accept string) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}

	waitedForRateLimit := false
	for attempt := 0; ; attempt++ {
		body, status, header, err := c.roundTrip(ctx, method, u, encoded, accept)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusNotFound:
			return nil, ErrNotFound
		case status == http.StatusForbidden || status == http.StatusTooManyRequests:
			if until, ok := rateLimitReset(header); ok && !waitedForRateLimit {
				c.log.Info("rate limited, backing off", "until", time.Now().Add(until))
				c.sleep(until)
				waitedForRateLimit = true
				continue
			}
			if status == http.StatusTooManyRequests || header.Get("X-RateLimit-Remaining") == "0" {
				return nil, ErrRateLimited
			}
			return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, u, status, strings.TrimSpace(string(body)))
		case status >= 200 && status < 300:
			return body, nil
		case status >= 500 && attempt < 3:
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Debug("server error, retrying", "status", status, "backoff", backoff)
			c.sleep(backoff)
			continue
		default:
			return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, u, status, strings.TrimSpace(string(body)))
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, method, u string, payload []byte, accept string) ([]byte, int, http.Header, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, nil, err
	}
	c.setAuth(req)
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

// rateLimitReset returns how long to wait for the rate limit to reset when
// the reset is less than five minutes away.
func rateLimitReset(h http.Header) (time.Duration, bool) {
	reset := h.Get("X-RateLimit-Reset")
	if reset == "" {
		return 0, false
	}
	ts, _ := strconv.ParseInt(reset, 10, 64)
	if ts <= 0 {
		return 0, false
	}
	until := time.Until(time.Unix(ts, 0))
	if until > 0 && until < 5*time.Minute {
		return until, true
	}
	return 0, false
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
}
