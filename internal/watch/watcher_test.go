package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGitDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs", "heads"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs", "tags"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644))
	return dir
}

func TestRelevantFiltering(t *testing.T) {
	gitDir := fakeGitDir(t)
	w, err := NewRefWatcher(gitDir, nil)
	require.NoError(t, err)
	defer w.Close()

	write := func(path string) fsnotify.Event {
		return fsnotify.Event{Name: path, Op: fsnotify.Write}
	}

	assert.True(t, w.relevant(write(filepath.Join(gitDir, "HEAD"))))
	assert.True(t, w.relevant(write(filepath.Join(gitDir, "packed-refs"))))
	assert.True(t, w.relevant(write(filepath.Join(gitDir, "refs", "heads", "main"))))
	assert.True(t, w.relevant(write(filepath.Join(gitDir, "refs", "tags", "v1.0"))))

	assert.False(t, w.relevant(write(filepath.Join(gitDir, "index"))))
	assert.False(t, w.relevant(write(filepath.Join(gitDir, "COMMIT_EDITMSG"))))
	assert.False(t, w.relevant(write(filepath.Join(gitDir, "objects", "ab", "cdef"))))
}

func TestWatcherEmitsOnRefChange(t *testing.T) {
	gitDir := fakeGitDir(t)
	w, err := NewRefWatcher(gitDir, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// a ref update plus HEAD rewrite, as a real commit produces
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "refs", "heads", "main"), []byte("abc123\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644))

	select {
	case <-w.Events():
		// one coalesced notification
	case <-time.After(3 * time.Second):
		t.Fatal("expected a notification after a ref change")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	gitDir := fakeGitDir(t)
	w, err := NewRefWatcher(gitDir, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "COMMIT_EDITMSG"), []byte("wip\n"), 0644))

	select {
	case <-w.Events():
		t.Fatal("unrelated git files must not trigger notifications")
	case <-time.After(700 * time.Millisecond):
	}
}
