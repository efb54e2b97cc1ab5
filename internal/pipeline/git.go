// internal/pipeline/git.go
package pipeline

import (
	"context"

	"sigdiff/internal/gitrepo"
)

// GitMaterializer adapts gitrepo.Repository to the Materializer
// interface.
type GitMaterializer struct {
	Repo *gitrepo.Repository
}

func (m GitMaterializer) ResolveRef(ctx context.Context, name string) (string, error) {
	return m.Repo.ResolveRef(ctx, name)
}

func (m GitMaterializer) Materialize(ctx context.Context, ref, dir string) (WorkingCopy, error) {
	wc, err := m.Repo.Materialize(ctx, ref, dir)
	if err != nil {
		return nil, err
	}
	return wc, nil
}
