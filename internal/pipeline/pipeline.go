// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sderr "sigdiff/internal/errors"
	"sigdiff/internal/extract"
)

// WorkingCopy is the slice of gitrepo.WorkingCopy the orchestrator needs.
type WorkingCopy interface {
	Dir() string
	Release(ctx context.Context) error
}

// Materializer produces isolated checkouts. Satisfied by the gitrepo
// adapter in production; faked in tests.
type Materializer interface {
	ResolveRef(ctx context.Context, name string) (string, error)
	Materialize(ctx context.Context, ref, dir string) (WorkingCopy, error)
}

// Extractor is the commit-keyed extraction capability the orchestrator
// drives once per branch.
type Extractor interface {
	ExtractCommit(ctx context.Context, dir, commitSHA string) (*extract.Document, error)
}

// PlainExtractor adapts a bare extract.Extractor, ignoring the commit key.
func PlainExtractor(inner extract.Extractor) Extractor {
	return plainExtractor{inner}
}

type plainExtractor struct {
	inner extract.Extractor
}

func (p plainExtractor) ExtractCommit(ctx context.Context, dir, _ string) (*extract.Document, error) {
	return p.inner.Extract(ctx, dir)
}

// Runner materializes and extracts two revisions in parallel and joins
// the results.
type Runner struct {
	Materializer Materializer
	Extractor    Extractor
	TempRoot     string
	Logger       *zap.Logger
}

type branch struct {
	name string
	ref  string
	sha  string
}

type branchResult struct {
	doc *extract.Document
	err error
}

// Run validates and resolves both refs, then runs materialize → extract
// → release per branch concurrently. Either both documents come back or
// an error does; there is no partial result.
//
// Both refs are resolved before any filesystem work so an invalid name
// fails with no side effects. When both branches fail, the base failure
// is returned with the target failure attached as its secondary cause.
// A failing branch never cancels its sibling; both run to completion.
func (r *Runner) Run(ctx context.Context, baseRef, targetRef string) (*extract.Document, *extract.Document, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	baseSHA, err := r.Materializer.ResolveRef(ctx, baseRef)
	if err != nil {
		return nil, nil, sderr.WithBranch(err, "base")
	}
	targetSHA, err := r.Materializer.ResolveRef(ctx, targetRef)
	if err != nil {
		return nil, nil, sderr.WithBranch(err, "target")
	}

	runDir := filepath.Join(r.TempRoot, uuid.NewString())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, nil, sderr.MaterializationFailed(baseRef, fmt.Errorf("creating run directory: %w", err))
	}
	defer os.RemoveAll(runDir)

	logger.Debug("starting branch tasks",
		zap.String("base", baseSHA),
		zap.String("target", targetSHA),
		zap.String("dir", runDir))

	branches := [2]branch{
		{name: "base", ref: baseRef, sha: baseSHA},
		{name: "target", ref: targetRef, sha: targetSHA},
	}

	var results [2]branchResult
	var wg sync.WaitGroup
	for i := range branches {
		wg.Add(1)
		go func(i int, b branch) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					results[i] = branchResult{err: sderr.TaskFailed(b.name, fmt.Errorf("panic: %v", p))}
				}
			}()
			doc, err := r.runBranch(ctx, logger, b, filepath.Join(runDir, b.name))
			results[i] = branchResult{doc: doc, err: err}
		}(i, branches[i])
	}
	wg.Wait()

	baseRes, targetRes := results[0], results[1]
	if baseRes.err != nil {
		if targetRes.err != nil {
			logger.Warn("target branch also failed", zap.Error(targetRes.err))
			return nil, nil, attachSecondary(baseRes.err, targetRes.err)
		}
		return nil, nil, baseRes.err
	}
	if targetRes.err != nil {
		return nil, nil, targetRes.err
	}

	return baseRes.doc, targetRes.doc, nil
}

func (r *Runner) runBranch(ctx context.Context, logger *zap.Logger, b branch, dir string) (*extract.Document, error) {
	wc, err := r.Materializer.Materialize(ctx, b.ref, dir)
	if err != nil {
		return nil, sderr.WithBranch(err, b.name)
	}
	defer func() {
		// Release runs on every exit path, extraction failure included.
		if err := wc.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("working copy release failed",
				zap.String("branch", b.name),
				zap.Error(err))
		}
	}()

	doc, err := r.Extractor.ExtractCommit(ctx, wc.Dir(), b.sha)
	if err != nil {
		return nil, sderr.WithBranch(err, b.name)
	}

	logger.Debug("branch extracted",
		zap.String("branch", b.name),
		zap.Int("symbols", doc.Len()))

	return doc, nil
}

func attachSecondary(primary, secondary error) error {
	var e *sderr.Error
	if !errors.As(primary, &e) {
		return primary
	}
	tagged := *e
	tagged.Secondary = secondary
	return &tagged
}
