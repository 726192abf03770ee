// Package testsuite runs the project's tox environments against a
// clean export of the Git index.
package testsuite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/execx"
	"github.com/warehouse-tools/whrel/internal/gitx"
)

// databaseEnvKey is the variable the Warehouse test suite reads for its
// database connection.
const databaseEnvKey = "WAREHOUSE_DATABASE_URL"

var (
	ErrNilGit    = errors.New("testsuite service: nil git client")
	ErrNilRunner = errors.New("testsuite service: nil runner")
)

// Config captures the inputs for a test run.
type Config struct {
	// ProjectDir is the repository root. Defaults to ".".
	ProjectDir string
	// DatabaseURL, when set, is exported to every tox subprocess.
	DatabaseURL string
	// SkipEnvs lists tox environments excluded from the run.
	SkipEnvs []string
	// TempRoot overrides the parent directory for the export. Empty
	// means the system default.
	TempRoot string
}

// Result reports which environments ran and which were skipped.
type Result struct {
	Ran     []string
	Skipped []string
}

// Service exports the index and runs each tox environment in sequence.
type Service struct {
	git    gitx.Client
	runner execx.Runner
	logger *zap.Logger
}

// NewService constructs a Service instance.
func NewService(git gitx.Client, runner execx.Runner, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Service{git: git, runner: runner, logger: logger}
}

// Run executes the test suite. The export directory is removed on every
// exit path.
func (s Service) Run(ctx context.Context, cfg Config) (Result, error) {
	if s.git == nil {
		return Result{}, ErrNilGit
	}
	if s.runner == nil {
		return Result{}, ErrNilRunner
	}

	dir := cfg.ProjectDir
	if dir == "" {
		dir = "."
	}

	tmpdir, err := os.MkdirTemp(cfg.TempRoot, "whrel-test-")
	if err != nil {
		return Result{}, fmt.Errorf("creating export directory: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	s.logger.Info("exporting working tree for tests", zap.String("export", tmpdir))
	if err := s.git.ExportIndex(ctx, dir, tmpdir+string(os.PathSeparator)); err != nil {
		return Result{}, fmt.Errorf("exporting index: %w", err)
	}

	env := s.subprocessEnv(cfg)

	listed, err := s.runner.Run(ctx, execx.Command{
		Name: "tox",
		Args: []string{"-l"},
		Dir:  tmpdir,
		Env:  env,
	})
	if err != nil {
		return Result{}, fmt.Errorf("listing tox environments: %w", err)
	}

	ran, skipped := partitionEnvs(listed.Stdout, cfg.SkipEnvs)
	s.logger.Info("running tests",
		zap.Strings("envs", ran),
		zap.Strings("skipped", skipped),
	)

	for _, name := range ran {
		s.logger.Info("running test environment", zap.String("env", name))
		if _, err := s.runner.Run(ctx, execx.Command{
			Name: "tox",
			Args: []string{"-e", name},
			Dir:  tmpdir,
			Env:  env,
		}); err != nil {
			return Result{}, fmt.Errorf("running the %s tests: %w", name, err)
		}
	}

	return Result{Ran: ran, Skipped: skipped}, nil
}

func (s Service) subprocessEnv(cfg Config) []string {
	url := strings.TrimSpace(cfg.DatabaseURL)
	if url == "" {
		return nil
	}
	return []string{databaseEnvKey + "=" + url}
}

// partitionEnvs splits the tox -l output into environments to run and
// environments dropped by the skip list. Run order is sorted for
// determinism.
func partitionEnvs(listing string, skip []string) (ran, skipped []string) {
	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		skipSet[trimmed] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, name := range strings.Fields(listing) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, drop := skipSet[name]; drop {
			skipped = append(skipped, name)
			continue
		}
		ran = append(ran, name)
	}

	sort.Strings(ran)
	sort.Strings(skipped)
	return ran, skipped
}
