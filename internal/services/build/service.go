// Package build computes the next release version, stamps it into the
// tree, tags the revision, and produces distribution artifacts from a
// clean export of the tag.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/domain/about"
	"github.com/warehouse-tools/whrel/internal/domain/relver"
	"github.com/warehouse-tools/whrel/internal/execx"
	"github.com/warehouse-tools/whrel/internal/gitx"
)

var (
	ErrNilGit    = errors.New("build service: nil git client")
	ErrNilRunner = errors.New("build service: nil runner")
)

// distTypes are the setup.py targets built for each release, in order.
var distTypes = []string{"sdist", "bdist_wheel"}

// Config captures the inputs for a build run.
type Config struct {
	// ProjectDir is the repository root. Defaults to ".".
	ProjectDir string
	// TagPrefix is prepended to release tag names. Defaults to "v".
	TagPrefix string
	// AboutPath is the metadata file path relative to ProjectDir.
	AboutPath string
	// Metadata holds the static fields written into the about file.
	Metadata about.Metadata
	// Sign controls whether the release tag is GPG-signed.
	Sign bool
	// TempRoot overrides the parent directory for the export. Empty
	// means the system default.
	TempRoot string
}

// Artifact describes one built distribution.
type Artifact struct {
	Kind     string
	Filename string
	Size     int64
}

// Result reports what the build produced.
type Result struct {
	Version        string
	BuildTag       string
	TagName        string
	Artifacts      []Artifact
	NextDevVersion string
}

// Service orchestrates the release build.
type Service struct {
	git    gitx.Client
	runner execx.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a Service. A nil clock defaults to time.Now.
func NewService(git gitx.Client, runner execx.Runner, logger *zap.Logger, now func() time.Time) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return Service{git: git, runner: runner, logger: logger, now: now}
}

// Run performs the full build flow and returns the release details.
func (s Service) Run(ctx context.Context, cfg Config) (Result, error) {
	if s.git == nil {
		return Result{}, ErrNilGit
	}
	if s.runner == nil {
		return Result{}, ErrNilRunner
	}

	cfg = withDefaults(cfg)
	dir := cfg.ProjectDir

	series := relver.Series(s.now())
	tags, err := s.git.ListTags(ctx, dir, cfg.TagPrefix+series+".*")
	if err != nil {
		return Result{}, fmt.Errorf("listing release tags: %w", err)
	}

	next, err := relver.NextInSeries(tags, series, cfg.TagPrefix)
	if err != nil {
		return Result{}, err
	}
	version := next.String()

	head, err := s.git.Head(ctx, dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	buildTag := relver.BuildTag(head)

	s.logger.Info("planned release",
		zap.String("series", series),
		zap.String("version", version),
		zap.String("build", buildTag),
	)

	aboutName := filepath.Base(cfg.AboutPath)
	if err := s.stampAbout(ctx, cfg, version, buildTag,
		fmt.Sprintf("Generate the release %s (version=%s build=%s)", aboutName, version, buildTag),
	); err != nil {
		return Result{}, err
	}

	tagName := cfg.TagPrefix + version
	tagMessage := fmt.Sprintf("Released version %s (%s)", tagName, buildTag)
	if err := s.git.CreateTag(ctx, dir, tagName, tagMessage, cfg.Sign); err != nil {
		return Result{}, fmt.Errorf("creating tag %s: %w", tagName, err)
	}

	artifacts, err := s.buildDistributions(ctx, cfg, tagName)
	if err != nil {
		return Result{}, err
	}

	devVersion := relver.Dev(next)
	if err := s.stampAbout(ctx, cfg, devVersion, relver.DevelopmentBuild,
		fmt.Sprintf("Generate the development %s", aboutName),
	); err != nil {
		return Result{}, err
	}

	return Result{
		Version:        version,
		BuildTag:       buildTag,
		TagName:        tagName,
		Artifacts:      artifacts,
		NextDevVersion: devVersion,
	}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.TagPrefix == "" {
		cfg.TagPrefix = "v"
	}
	if cfg.AboutPath == "" {
		cfg.AboutPath = filepath.Join("warehouse", "__about__.py")
	}
	return cfg
}

// stampAbout writes the about file with the provided values and commits it.
func (s Service) stampAbout(ctx context.Context, cfg Config, version, buildTag, message string) error {
	content := about.Render(cfg.Metadata, version, buildTag)
	path := filepath.Join(cfg.ProjectDir, cfg.AboutPath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.AboutPath, err)
	}

	if err := s.git.Add(ctx, cfg.ProjectDir, cfg.AboutPath); err != nil {
		return fmt.Errorf("staging %s: %w", cfg.AboutPath, err)
	}
	if err := s.git.Commit(ctx, cfg.ProjectDir, message); err != nil {
		return fmt.Errorf("committing %s: %w", cfg.AboutPath, err)
	}

	s.logger.Info("about file generated",
		zap.String("path", cfg.AboutPath),
		zap.String("version", version),
		zap.String("build", buildTag),
	)
	return nil
}

// buildDistributions exports the tagged tree into a temporary directory,
// builds each distribution type there, and moves the results into the
// project's dist directory. The export is removed on every exit path and
// the original branch is restored once the tag has been checked out.
func (s Service) buildDistributions(ctx context.Context, cfg Config, tagName string) ([]Artifact, error) {
	dir := cfg.ProjectDir

	tmpdir, err := os.MkdirTemp(cfg.TempRoot, "whrel-build-")
	if err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	branch, err := s.git.CurrentBranch(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("resolving current branch: %w", err)
	}

	if err := s.git.Checkout(ctx, dir, tagName); err != nil {
		return nil, fmt.Errorf("checking out %s: %w", tagName, err)
	}

	exportErr := s.git.ExportIndex(ctx, dir, tmpdir+string(os.PathSeparator))

	// The repository must not stay on a detached tag, even when the
	// export failed.
	if err := s.git.Checkout(ctx, dir, branch); err != nil {
		return nil, fmt.Errorf("restoring branch %s: %w", branch, err)
	}
	if exportErr != nil {
		return nil, fmt.Errorf("exporting %s: %w", tagName, exportErr)
	}

	exportDist := filepath.Join(tmpdir, "dist")
	if err := os.MkdirAll(exportDist, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", exportDist, err)
	}

	var artifacts []Artifact
	for _, distType := range distTypes {
		artifact, err := s.buildOne(ctx, tmpdir, exportDist, distType)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	projectDist := filepath.Join(dir, "dist")
	if err := os.RemoveAll(projectDist); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", projectDist, err)
	}
	if err := moveDir(exportDist, projectDist); err != nil {
		return nil, fmt.Errorf("moving distributions: %w", err)
	}

	return artifacts, nil
}

func (s Service) buildOne(ctx context.Context, exportRoot, exportDist, distType string) (Artifact, error) {
	before, err := distFiles(exportDist)
	if err != nil {
		return Artifact{}, err
	}

	if _, err := s.runner.Run(ctx, execx.Command{
		Name: "python",
		Args: []string{"setup.py", distType},
		Dir:  exportRoot,
	}); err != nil {
		return Artifact{}, fmt.Errorf("building %s: %w", distType, err)
	}

	after, err := distFiles(exportDist)
	if err != nil {
		return Artifact{}, err
	}

	filename := newFile(before, after)
	if filename == "" {
		return Artifact{}, fmt.Errorf("building %s: no artifact appeared in dist", distType)
	}

	info, err := os.Stat(filepath.Join(exportDist, filename))
	if err != nil {
		return Artifact{}, fmt.Errorf("inspecting %s: %w", filename, err)
	}

	s.logger.Info("generated distribution",
		zap.String("type", distType),
		zap.String("filename", filename),
		zap.Int64("bytes", info.Size()),
	)

	return Artifact{Kind: distType, Filename: filename, Size: info.Size()}, nil
}

func distFiles(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = struct{}{}
	}
	return names, nil
}

func newFile(before, after map[string]struct{}) string {
	for name := range after {
		if _, known := before[name]; !known {
			return name
		}
	}
	return ""
}

// moveDir renames src to dst, falling back to a copy when the rename
// crosses filesystems.
func moveDir(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
