// cmd/sigdiff/diff.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"sigdiff/internal/apidiff"
	"sigdiff/internal/cache"
	"sigdiff/internal/config"
	"sigdiff/internal/extract"
	"sigdiff/internal/gitrepo"
	"sigdiff/internal/logging"
	"sigdiff/internal/pipeline"
	"sigdiff/internal/render"
)

type diffOptions struct {
	baseRef      string
	targetRef    string
	templatePath string
	tempDir      string
	outputPath   string
	extractorCmd string
	noCache      bool
}

// session holds everything a diff run needs, so watch mode can reuse it
// across iterations.
type session struct {
	runner   *pipeline.Runner
	repo     *gitrepo.Repository
	store    *cache.Store
	template string // empty means summary output
	logger   *logging.Logger

	removeTempDir string // generated temp dir to delete on close, if any
}

func newSession(cfg *config.Config, logger *logging.Logger, opts *diffOptions) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	repo, err := gitrepo.Open(cwd, logger.Logger)
	if err != nil {
		return nil, err
	}

	var templateText string
	if opts.templatePath != "" {
		raw, err := os.ReadFile(opts.templatePath)
		if err != nil {
			return nil, fmt.Errorf("reading template file: %w", err)
		}
		templateText = string(raw)
	}

	tempRoot := opts.tempDir
	removeTempDir := ""
	if tempRoot == "" {
		tempRoot, err = os.MkdirTemp("", "sigdiff-")
		if err != nil {
			return nil, fmt.Errorf("creating temp directory: %w", err)
		}
		removeTempDir = tempRoot
	}

	command := cfg.Extractor.Command
	args := cfg.Extractor.Args
	if fields := strings.Fields(opts.extractorCmd); len(fields) > 0 {
		command, args = fields[0], fields[1:]
	}
	engine := extract.NewCommandExtractor(command, args, logger.Logger)

	var store *cache.Store
	var extractor pipeline.Extractor = pipeline.PlainExtractor(engine)
	if !opts.noCache && !cfg.Cache.Disabled {
		store, err = cache.Open(cache.Options{
			Dir:    cfg.Cache.Dir,
			Logger: logger.Logger,
		})
		if err != nil {
			// A broken cache should not block a diff.
			logger.Warn("extraction cache unavailable", zap.Error(err))
		} else {
			extractor = extract.NewCachingExtractor(engine, store, engine.Identity(), logger.Logger)
		}
	}

	return &session{
		runner: &pipeline.Runner{
			Materializer: pipeline.GitMaterializer{Repo: repo},
			Extractor:    extractor,
			TempRoot:     tempRoot,
			Logger:       logger.Logger,
		},
		repo:          repo,
		store:         store,
		template:      templateText,
		logger:        logger,
		removeTempDir: removeTempDir,
	}, nil
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.removeTempDir != "" {
		os.RemoveAll(s.removeTempDir)
	}
}

// execute runs the pipeline once and returns the rendered output.
func (s *session) execute(ctx context.Context, baseRef, targetRef string) (string, error) {
	baseDoc, targetDoc, err := s.runner.Run(ctx, baseRef, targetRef)
	if err != nil {
		return "", err
	}

	result := apidiff.Diff(baseDoc, targetDoc)
	data := render.Project(result)

	s.logger.Info("diff computed",
		zap.Int("added", len(data.Added)),
		zap.Int("removed", len(data.Removed)),
		zap.Int("changed", len(data.Changed)))

	if s.template == "" {
		var sb strings.Builder
		render.PrintSummary(&sb, data)
		return sb.String(), nil
	}
	return render.Render(s.template, data)
}

func runDiff(opts *diffOptions) error {
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

	text, err := sess.execute(context.Background(), opts.baseRef, opts.targetRef)
	if err != nil {
		return err
	}

	return render.WriteOutput(opts.outputPath, text, os.Stdout)
}
