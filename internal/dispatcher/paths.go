package dispatcher

import (
	"iter"
	"slices"
	"strings"

	"github.com/monorepo-trigger/internal/vcs"
)

// ChangedPaths yields every distinct path on either side of diffs.
func ChangedPaths(diffs []vcs.Difference) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{}, len(diffs))
		emit := func(b *vcs.Blob) bool {
			if b == nil || b.Path == "" {
				return true
			}
			if _, dup := seen[b.Path]; dup {
				return true
			}
			seen[b.Path] = struct{}{}
			return yield(b.Path)
		}
		for _, d := range diffs {
			if !emit(d.Before) || !emit(d.After) {
				return
			}
		}
	}
}

// TopLevelDirectories returns the sorted distinct first segments of paths
// that have at least one '/'. Files at the repository root are ignored.
func TopLevelDirectories(paths iter.Seq[string]) []string {
	set := make(map[string]struct{})
	for p := range paths {
		dir, _, nested := strings.Cut(p, "/")
		if !nested || dir == "" {
			continue
		}
		set[dir] = struct{}{}
	}
	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs
}
