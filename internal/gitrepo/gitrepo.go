// Package gitrepo serves commits, diffs and files from git repositories on
// local disk. It lets the dispatcher run against a mirror next to the
// service instead of a hosted API.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/monorepo-trigger/internal/vcs"
)

// Repositories implements vcs.Service over repositories found under a root
// directory as <name>.git (bare) or <name> (with worktree).
type Repositories struct {
	root string

	mu   sync.Mutex
	open map[string]*git.Repository
}

// New returns a Repositories rooted at root.
func New(root string) *Repositories {
	return &Repositories{root: root, open: make(map[string]*git.Repository)}
}

// Add registers an already opened repository under name.
func (r *Repositories) Add(name string, repo *git.Repository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[name] = repo
}

func (r *Repositories) repository(name string) (*git.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok := r.open[name]; ok {
		return repo, nil
	}
	for _, dir := range []string{filepath.Join(r.root, name+".git"), filepath.Join(r.root, name)} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dir, err)
		}
		r.open[name] = repo
		return repo, nil
	}
	return nil, fmt.Errorf("repository %s: %w", name, vcs.ErrNotFound)
}

func (r *Repositories) commit(name, rev string) (*object.Commit, error) {
	repo, err := r.repository(name)
	if err != nil {
		return nil, err
	}
	h, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, notFound(rev, err)
	}
	c, err := repo.CommitObject(*h)
	if err != nil {
		return nil, notFound(rev, err)
	}
	return c, nil
}

func notFound(what string, err error) error {
	if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, object.ErrFileNotFound) {
		return fmt.Errorf("%s: %w", what, vcs.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// GetCommit implements vcs.Service.
func (r *Repositories) GetCommit(ctx context.Context, repository, commitID string) (*vcs.Commit, error) {
	c, err := r.commit(repository, commitID)
	if err != nil {
		return nil, err
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &vcs.Commit{ID: c.Hash.String(), Parents: parents}, nil
}

// GetDifferences implements vcs.Service. An empty before diffs after against
// the empty tree.
func (r *Repositories) GetDifferences(ctx context.Context, repository, before, after string) ([]vcs.Difference, error) {
	to, err := r.tree(repository, after)
	if err != nil {
		return nil, err
	}
	var from *object.Tree
	if before != "" {
		if from, err = r.tree(repository, before); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", before, after, err)
	}
	diffs := make([]vcs.Difference, 0, len(changes))
	for _, ch := range changes {
		var d vcs.Difference
		if ch.From.Name != "" {
			d.Before = &vcs.Blob{Path: ch.From.Name}
		}
		if ch.To.Name != "" {
			d.After = &vcs.Blob{Path: ch.To.Name}
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func (r *Repositories) tree(repository, rev string) (*object.Tree, error) {
	c, err := r.commit(repository, rev)
	if err != nil {
		return nil, err
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", rev, err)
	}
	return t, nil
}

// GetFile implements vcs.Service.
func (r *Repositories) GetFile(ctx context.Context, repository, ref, path string) ([]byte, error) {
	c, err := r.commit(repository, ref)
	if err != nil {
		return nil, err
	}
	f, err := c.File(path)
	if err != nil {
		return nil, notFound(path+"@"+ref, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s@%s: %w", path, ref, err)
	}
	return []byte(content), nil
}
