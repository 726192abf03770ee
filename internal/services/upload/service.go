// Package upload publishes the built distributions to a package index
// via twine.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/execx"
)

var (
	ErrNilRunner   = errors.New("upload service: nil runner")
	ErrNoArtifacts = errors.New("upload service: no artifacts in dist")
)

// defaultIndex is the label used in logs when no repository override is set.
const defaultIndex = "PyPI"

// Config captures the inputs for an upload run.
type Config struct {
	// ProjectDir is the repository root. Defaults to ".".
	ProjectDir string
	// Repository names the target index from the twine configuration.
	// Empty means the default index.
	Repository string
	// Sign asks twine to GPG-sign the uploads.
	Sign bool
}

// Result reports what was uploaded where.
type Result struct {
	Repository string
	Files      []string
}

// Service globs dist/* and hands the files to twine.
type Service struct {
	runner execx.Runner
	logger *zap.Logger
}

// NewService constructs a Service instance.
func NewService(runner execx.Runner, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Service{runner: runner, logger: logger}
}

// Run uploads every file in the dist directory.
func (s Service) Run(ctx context.Context, cfg Config) (Result, error) {
	if s.runner == nil {
		return Result{}, ErrNilRunner
	}

	dir := cfg.ProjectDir
	if dir == "" {
		dir = "."
	}

	matches, err := filepath.Glob(filepath.Join(dir, "dist", "*"))
	if err != nil {
		return Result{}, fmt.Errorf("globbing dist: %w", err)
	}
	if len(matches) == 0 {
		return Result{}, ErrNoArtifacts
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(dir, match)
		if err != nil {
			return Result{}, fmt.Errorf("resolving %s: %w", match, err)
		}
		files = append(files, rel)
	}

	repository := strings.TrimSpace(cfg.Repository)
	target := repository
	if target == "" {
		target = defaultIndex
	}
	s.logger.Info("uploading distributions",
		zap.String("repository", target),
		zap.Strings("files", files),
	)

	args := []string{"upload"}
	if cfg.Sign {
		args = append(args, "--sign")
	}
	if repository != "" {
		args = append(args, "-r", repository)
	}
	args = append(args, files...)

	if _, err := s.runner.Run(ctx, execx.Command{Name: "twine", Args: args, Dir: dir}); err != nil {
		return Result{}, fmt.Errorf("uploading to %s: %w", target, err)
	}

	s.logger.Info("uploaded", zap.Int("count", len(files)))
	return Result{Repository: target, Files: files}, nil
}
