package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderr "sigdiff/internal/errors"
)

// gitCall records one invocation of the stubbed git binary.
type gitCall struct {
	dir  string
	args []string
}

func stubGit(t *testing.T, handler func(args []string) (string, error)) *[]gitCall {
	t.Helper()
	var calls []gitCall

	orig := runGit
	runGit = func(ctx context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, gitCall{dir: dir, args: args})
		return handler(args)
	}
	t.Cleanup(func() { runGit = orig })

	return &calls
}

func okGit(t *testing.T) *[]gitCall {
	return stubGit(t, func(args []string) (string, error) {
		switch args[0] {
		case "rev-parse":
			if len(args) > 1 && args[1] == "--verify" {
				return "0123456789abcdef0123456789abcdef01234567", nil
			}
			return ".git", nil
		default:
			return "", nil
		}
	})
}

func openTestRepo(t *testing.T) *Repository {
	repo, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	return repo
}

func TestOpenRejectsNonRepository(t *testing.T) {
	stubGit(t, func(args []string) (string, error) {
		return "", fmt.Errorf("git rev-parse: exit status 128: not a git repository")
	})

	_, err := Open(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestResolveRef(t *testing.T) {
	calls := okGit(t)
	repo := openTestRepo(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sha, err := repo.ResolveRef(ctx, "main")
		require.NoError(t, err)
		assert.Len(t, sha, 40)

		last := (*calls)[len(*calls)-1]
		assert.Equal(t, []string{"rev-parse", "--verify", "--quiet", "main^{commit}"}, last.args)
	})

	t.Run("InvalidNameSkipsGit", func(t *testing.T) {
		before := len(*calls)
		_, err := repo.ResolveRef(ctx, "bad ref")
		require.Error(t, err)
		assert.True(t, sderr.IsKind(err, sderr.KindInvalidReference))
		assert.Equal(t, before, len(*calls), "syntactically invalid refs must not spawn git")
	})
}

func TestResolveRefUnknown(t *testing.T) {
	stubGit(t, func(args []string) (string, error) {
		if len(args) > 1 && args[1] == "--verify" {
			return "", fmt.Errorf("git rev-parse: exit status 1")
		}
		return ".git", nil
	})
	repo := openTestRepo(t)

	_, err := repo.ResolveRef(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, sderr.IsKind(err, sderr.KindUnknownReference))
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()

	t.Run("NewDirectory", func(t *testing.T) {
		calls := okGit(t)
		repo := openTestRepo(t)
		dir := filepath.Join(t.TempDir(), "wt-base")

		wc, err := repo.Materialize(ctx, "main", dir)
		require.NoError(t, err)
		assert.Equal(t, dir, wc.Dir())
		assert.Equal(t, "main", wc.Ref)

		last := (*calls)[len(*calls)-1]
		assert.Equal(t, []string{"worktree", "add", "--detach", dir, "main"}, last.args)
	})

	t.Run("ExistingEmptyDirectory", func(t *testing.T) {
		okGit(t)
		repo := openTestRepo(t)
		dir := filepath.Join(t.TempDir(), "wt")
		require.NoError(t, os.Mkdir(dir, 0755))

		_, err := repo.Materialize(ctx, "main", dir)
		assert.NoError(t, err)
	})

	t.Run("NonEmptyDirectoryConflicts", func(t *testing.T) {
		calls := okGit(t)
		repo := openTestRepo(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "occupied"), []byte("x"), 0644))

		before := len(*calls)
		_, err := repo.Materialize(ctx, "main", dir)
		require.Error(t, err)
		assert.True(t, sderr.IsKind(err, sderr.KindPathConflict))
		assert.Equal(t, before, len(*calls), "conflicting destination must not spawn git")
	})

	t.Run("InvalidRef", func(t *testing.T) {
		okGit(t)
		repo := openTestRepo(t)

		_, err := repo.Materialize(ctx, "bad..ref", filepath.Join(t.TempDir(), "wt"))
		require.Error(t, err)
		assert.True(t, sderr.IsKind(err, sderr.KindInvalidReference))
	})

	t.Run("WorktreeAddFails", func(t *testing.T) {
		stubGit(t, func(args []string) (string, error) {
			if args[0] == "worktree" {
				return "", fmt.Errorf("git worktree: exit status 128: ref not found")
			}
			return ".git", nil
		})
		repo := openTestRepo(t)

		_, err := repo.Materialize(ctx, "main", filepath.Join(t.TempDir(), "wt"))
		require.Error(t, err)
		assert.True(t, sderr.IsKind(err, sderr.KindMaterializationFailed))
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesWorktree", func(t *testing.T) {
		calls := okGit(t)
		repo := openTestRepo(t)
		dir := filepath.Join(t.TempDir(), "wt")

		wc, err := repo.Materialize(ctx, "main", dir)
		require.NoError(t, err)

		require.NoError(t, wc.Release(ctx))
		last := (*calls)[len(*calls)-1]
		assert.Equal(t, []string{"worktree", "remove", "--force", dir}, last.args)
	})

	t.Run("Idempotent", func(t *testing.T) {
		calls := okGit(t)
		repo := openTestRepo(t)

		wc, err := repo.Materialize(ctx, "main", filepath.Join(t.TempDir(), "wt"))
		require.NoError(t, err)

		require.NoError(t, wc.Release(ctx))
		count := len(*calls)
		require.NoError(t, wc.Release(ctx))
		assert.Equal(t, count, len(*calls), "second release must be a no-op")
	})

	t.Run("FallsBackToDirectoryRemoval", func(t *testing.T) {
		stubGit(t, func(args []string) (string, error) {
			if args[0] == "worktree" && args[1] == "remove" {
				return "", fmt.Errorf("git worktree: exit status 128")
			}
			return ".git", nil
		})
		repo := openTestRepo(t)

		dir := filepath.Join(t.TempDir(), "wt")
		wc, err := repo.Materialize(ctx, "main", dir)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(dir, 0755)) // simulate the checkout

		require.NoError(t, wc.Release(ctx))
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr), "directory must be gone even when git refuses")
	})

	t.Run("NilSafe", func(t *testing.T) {
		var wc *WorkingCopy
		assert.NoError(t, wc.Release(ctx))
	})
}

func TestGitDir(t *testing.T) {
	stubGit(t, func(args []string) (string, error) {
		if len(args) > 1 && args[1] == "--absolute-git-dir" {
			return "/repo/.git", nil
		}
		return ".git", nil
	})
	repo := openTestRepo(t)

	dir, err := repo.GitDir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/repo/.git", dir)
	assert.True(t, strings.HasSuffix(dir, ".git"))
}
