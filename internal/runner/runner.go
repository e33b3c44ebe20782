// Package runner generates a batch of specs, records every outcome and
// optionally writes the bound sources to disk.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ex2code/internal/db"
	"ex2code/pkg/binder"
	"ex2code/pkg/spec"
)

// DefaultConcurrency bounds parallel generations when Options.Concurrency is unset.
const DefaultConcurrency = 4

type Options struct {
	Client spec.Client
	Binder *binder.Binder
	// DB stores every outcome when set.
	DB *sql.DB
	// OutDir receives <name>.go for every bound artifact when set. Specs
	// sharing a name are then rejected before any generation starts.
	OutDir      string
	Concurrency int
}

// Run generates every spec. A failed generation is recorded in its Artifact
// and does not stop the batch; storage and file errors do. Results keep the
// order of specs.
func Run(ctx context.Context, specs []spec.Spec, opts Options) ([]*db.Artifact, error) {
	n := opts.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	if opts.OutDir != "" {
		seen := make(map[string]spec.Kind, len(specs))
		for _, s := range specs {
			if k, ok := seen[s.Name()]; ok {
				return nil, fmt.Errorf("%w: %s and %s %s would both write %s.go", spec.ErrDuplicateName, k, s.Kind(), s.Name(), s.Name())
			}
			seen[s.Name()] = s.Kind()
		}
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create output directory: %w", err)
		}
	}

	results := make([]*db.Artifact, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i, s := range specs {
		g.Go(func() error {
			a, err := one(ctx, s, opts)
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func one(ctx context.Context, s spec.Spec, opts Options) (*db.Artifact, error) {
	logger := zerolog.Ctx(ctx).With().Str("kind", string(s.Kind())).Str("name", s.Name()).Logger()

	gen := spec.NewGeneration(s)
	art, genErr := gen.Run(logger.WithContext(ctx), opts.Client, opts.Binder)
	if genErr != nil {
		logger.Warn().Err(genErr).Str("state", gen.State().String()).Msg("generation failed")
	} else {
		logger.Info().Msg("artifact bound")
	}

	rec, err := db.FromGeneration(gen)
	if err != nil {
		return nil, err
	}
	if opts.DB != nil {
		if err := db.SaveArtifact(ctx, opts.DB, rec); err != nil {
			return nil, err
		}
	}
	if art != nil && opts.OutDir != "" {
		path := filepath.Join(opts.OutDir, s.Name()+".go")
		if err := os.WriteFile(path, []byte(art.Source()), 0o644); err != nil {
			return nil, fmt.Errorf("could not write %s: %w", path, err)
		}
	}
	return rec, nil
}
