// internal/gitrepo/worktree.go
package gitrepo

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	sderr "sigdiff/internal/errors"
)

// WorkingCopy is a detached checkout of one reference, owned by whoever
// asked for it. It is not valid after Release.
type WorkingCopy struct {
	Path string
	Ref  string

	repo     *Repository
	released bool
}

// Materialize checks out ref into dir as a detached worktree. dir must
// not exist yet, or be an empty directory. The main working tree and
// index are untouched; concurrent materializations of different refs are
// safe because worktree registration is serialized on the repository.
func (r *Repository) Materialize(ctx context.Context, ref, dir string) (*WorkingCopy, error) {
	if err := ValidateRefName(ref); err != nil {
		return nil, err
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return nil, sderr.PathConflict(dir)
	} else if err == nil {
		// git worktree add refuses an existing directory even when empty
		if err := os.Remove(dir); err != nil {
			return nil, sderr.PathConflict(dir)
		}
	} else if !os.IsNotExist(err) {
		return nil, sderr.MaterializationFailed(ref, fmt.Errorf("checking destination %s: %w", dir, err))
	}

	r.wtMu.Lock()
	_, err := r.run(ctx, "worktree", "add", "--detach", dir, ref)
	r.wtMu.Unlock()
	if err != nil {
		return nil, sderr.MaterializationFailed(ref, err)
	}

	r.logger.Debug("worktree created",
		zap.String("ref", ref),
		zap.String("path", dir))

	return &WorkingCopy{Path: dir, Ref: ref, repo: r}, nil
}

// Dir returns the checkout's filesystem root.
func (w *WorkingCopy) Dir() string {
	return w.Path
}

// Release unregisters and removes the worktree. Idempotent; always safe
// to defer. The directory is removed even if git has already forgotten
// the worktree.
func (w *WorkingCopy) Release(ctx context.Context) error {
	if w == nil || w.released {
		return nil
	}
	w.released = true

	w.repo.wtMu.Lock()
	_, err := w.repo.run(ctx, "worktree", "remove", "--force", w.Path)
	w.repo.wtMu.Unlock()

	if err != nil {
		// Fall back to removing the directory and letting git prune the
		// stale registration later.
		w.repo.logger.Warn("worktree remove failed, deleting directory",
			zap.String("path", w.Path),
			zap.Error(err))
		if rmErr := os.RemoveAll(w.Path); rmErr != nil {
			return fmt.Errorf("releasing worktree %s: %w", w.Path, rmErr)
		}
		_, _ = w.repo.run(ctx, "worktree", "prune")
		return nil
	}

	w.repo.logger.Debug("worktree released", zap.String("path", w.Path))
	return nil
}
