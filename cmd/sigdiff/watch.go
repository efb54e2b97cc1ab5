// cmd/sigdiff/watch.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sigdiff/internal/watch"
)

// runWatch runs the diff once, then re-runs it each time the
// repository's refs change. A failed re-run is logged and the watcher
// keeps going; only setup failures are fatal.
func runWatch(ctx context.Context, opts *diffOptions) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sess, err := newSession(cfg, logger, opts)
	if err != nil {
		return err
	}
	defer sess.close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gitDir, err := sess.repo.GitDir(ctx)
	if err != nil {
		return err
	}

	watcher, err := watch.NewRefWatcher(gitDir, logger.Logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	go watcher.Run(ctx)

	runOnce := func() {
		text, err := sess.execute(ctx, opts.baseRef, opts.targetRef)
		if err != nil {
			logger.Warn("diff run failed", zap.Error(err))
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		fmt.Print(text)
	}

	runOnce()
	logger.Info("watching for ref changes", zap.String("git_dir", gitDir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Events():
			logger.Info("refs changed, re-running diff")
			runOnce()
		}
	}
}
