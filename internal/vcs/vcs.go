// Package vcs describes the version-control service the dispatcher reads
// commits, diffs and configuration files from.
package vcs

//go:generate go run go.uber.org/mock/mockgen -destination vcs_mock.gen.go -package vcs . Service

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a commit, ref or file does not exist.
var ErrNotFound = errors.New("not found")

// Service is the subset of a version-control service used by the dispatcher.
type Service interface {
	// GetCommit returns metadata for commitID in repository.
	GetCommit(ctx context.Context, repository, commitID string) (*Commit, error)
	// GetDifferences returns the file-level changes between before and after.
	// An empty before means the changes introduced by after on its own.
	// Only a single page of differences is returned.
	GetDifferences(ctx context.Context, repository, before, after string) ([]Difference, error)
	// GetFile returns the content of path at ref.
	GetFile(ctx context.Context, repository, ref, path string) ([]byte, error)
}

// Commit is the commit metadata the dispatcher needs.
type Commit struct {
	ID      string
	Parents []string
}

// FirstParent returns the first parent of c, or "" for a root commit.
func (c *Commit) FirstParent() string {
	if c == nil || len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// Blob is one side of a Difference.
type Blob struct {
	Path string
}

// Difference describes one changed file. Before is nil for additions and
// After is nil for deletions.
type Difference struct {
	Before *Blob
	After  *Blob
}
