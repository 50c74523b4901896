package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/vcs"
)

// MapFileName is the repository-root file mapping directories to pipelines
// for branch.
func MapFileName(branch string) string {
	return "monorepo-" + branch + ".json"
}

// ParseMap decodes a directory to pipeline-name map. Comments and trailing
// commas are accepted; any value that is not a non-empty string is rejected.
func ParseMap(data []byte) (map[string]string, error) {
	var raw map[string]*string
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrConfigMalformed)
	}
	m := make(map[string]string, len(raw))
	for dir, name := range raw {
		if name == nil || *name == "" {
			return nil, fmt.Errorf("%w: no pipeline name for %q", ErrConfigMalformed, dir)
		}
		m[dir] = *name
	}
	return m, nil
}

// loadMap fetches the map from the head of the pushed branch.
func (d *Dispatcher) loadMap(ctx context.Context, trig event.Trigger) (map[string]string, error) {
	path := MapFileName(trig.Branch)
	data, err := d.repo.GetFile(ctx, trig.Repository, "refs/heads/"+trig.Branch, path)
	if errors.Is(err, vcs.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s on %s", ErrConfigNotFound, path, trig.Branch)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigRetrieval, path, err)
	}
	m, err := ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ResolvePipelines maps dirs to pipeline names. Directories missing from m
// are dropped and each name appears once, in order of first use.
func ResolvePipelines(dirs []string, m map[string]string) []string {
	names := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		name, ok := m[dir]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
