// internal/gitrepo/repo.go
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	sderr "sigdiff/internal/errors"
)

// Repository is a handle to an existing git repository. All operations
// shell out to the git command line in the repository directory.
//
// Worktree registration mutates shared .git state, so Materialize and
// WorkingCopy.Release serialize that section with wtMu. Everything else
// is safe for concurrent use.
type Repository struct {
	root    string
	timeout time.Duration
	logger  *zap.Logger

	wtMu sync.Mutex
}

// runGit executes a git command. Injectable in tests.
var runGit = func(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s: timeout", args[0])
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func Open(root string, logger *zap.Logger) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository path: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Repository{
		root:    abs,
		timeout: 2 * time.Minute,
		logger:  logger,
	}

	if _, err := r.run(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%s is not a git repository: %w", abs, err)
	}

	return r, nil
}

func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the repository's .git directory as an absolute path.
func (r *Repository) GitDir(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("locating git dir: %w", err)
	}
	return out, nil
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return runGit(ctx, r.root, args...)
}

// ResolveRef resolves a reference name to a commit SHA. The name is
// validated syntactically first so no subprocess runs for garbage input.
func (r *Repository) ResolveRef(ctx context.Context, name string) (string, error) {
	if err := ValidateRefName(name); err != nil {
		return "", err
	}

	sha, err := r.run(ctx, "rev-parse", "--verify", "--quiet", name+"^{commit}")
	if err != nil {
		return "", sderr.UnknownReference(name, err)
	}
	return sha, nil
}

// ValidateRefName checks reference name syntax without touching the
// repository. The rules are the subset of git-check-ref-format that
// matters for refusing garbage before any filesystem work starts.
func ValidateRefName(name string) error {
	if name == "" {
		return sderr.InvalidReference(name)
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return sderr.InvalidReference(name)
	}
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") || strings.HasSuffix(name, "/") {
		return sderr.InvalidReference(name)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") || strings.Contains(name, "//") {
		return sderr.InvalidReference(name)
	}
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			return sderr.InvalidReference(name)
		case r == ' ' || r == '~' || r == '^' || r == ':' || r == '?' || r == '*' || r == '[' || r == '\\':
			return sderr.InvalidReference(name)
		}
	}
	return nil
}
