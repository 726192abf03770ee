//go:build integration
// +build integration

package integration_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/domain/about"
	"github.com/warehouse-tools/whrel/internal/execx"
	"github.com/warehouse-tools/whrel/internal/gitx"
	"github.com/warehouse-tools/whrel/internal/services/build"
	"github.com/warehouse-tools/whrel/internal/services/testsuite"
	"github.com/warehouse-tools/whrel/internal/services/upload"
)

const stubTox = `#!/bin/sh
if [ "$1" = "-l" ]; then
  printf 'py27\npackaging\n'
  exit 0
fi
echo "tox $*" >> "$WHREL_IT_LOG"
exit 0
`

const stubPython = `#!/bin/sh
mkdir -p dist
case "$2" in
  sdist) : > dist/warehouse-it.tar.gz ;;
  bdist_wheel) : > dist/warehouse-it.whl ;;
  *) exit 1 ;;
esac
exit 0
`

const stubTwine = `#!/bin/sh
echo "twine $*" >> "$WHREL_IT_LOG"
exit 0
`

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func writeStub(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o755); err != nil {
		t.Fatalf("writing stub %s: %v", name, err)
	}
}

func mustRun(t *testing.T, runner execx.Runner, dir, name string, args ...string) {
	t.Helper()
	if _, err := runner.Run(context.Background(), execx.Command{Name: name, Args: args, Dir: dir}); err != nil {
		t.Fatalf("%s %s: %v", name, strings.Join(args, " "), err)
	}
}

func setupRepo(t *testing.T, runner execx.Runner) string {
	t.Helper()
	repo := t.TempDir()

	mustRun(t, runner, repo, "git", "init")
	mustRun(t, runner, repo, "git", "checkout", "-b", "main")
	mustRun(t, runner, repo, "git", "config", "user.name", "whrel-integration")
	mustRun(t, runner, repo, "git", "config", "user.email", "whrel-integration@example.com")

	if err := os.MkdirAll(filepath.Join(repo, "warehouse"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"setup.py":               "# placeholder\n",
		"tox.ini":                "[tox]\nenvlist = py27\n",
		"warehouse/__about__.py": "# generated later\n",
		"warehouse/__init__.py":  "",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(repo, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustRun(t, runner, repo, "git", "add", ".")
	mustRun(t, runner, repo, "git", "commit", "-m", "initial import")

	return repo
}

func TestReleaseWorkflowEndToEnd(t *testing.T) {
	requireGit(t)

	stubs := t.TempDir()
	writeStub(t, stubs, "tox", stubTox)
	writeStub(t, stubs, "python", stubPython)
	writeStub(t, stubs, "twine", stubTwine)

	logPath := filepath.Join(t.TempDir(), "tools.log")
	t.Setenv("WHREL_IT_LOG", logPath)
	t.Setenv("PATH", stubs+string(os.PathListSeparator)+os.Getenv("PATH"))

	logger := zap.NewNop()
	runner := execx.NewRunner(logger, false)
	git, err := gitx.NewClient(runner)
	if err != nil {
		t.Fatal(err)
	}

	repo := setupRepo(t, runner)
	ctx := context.Background()

	// test: runs the non-packaging tox envs against a clean export.
	testResult, err := testsuite.NewService(git, runner, logger).Run(ctx, testsuite.Config{
		ProjectDir: repo,
		SkipEnvs:   []string{"packaging"},
	})
	if err != nil {
		t.Fatalf("test suite: %v", err)
	}
	if len(testResult.Ran) != 1 || testResult.Ran[0] != "py27" {
		t.Fatalf("unexpected envs: %#v", testResult.Ran)
	}

	// build: tags the release and produces both distributions.
	now := func() time.Time { return time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC) }
	buildResult, err := build.NewService(git, runner, logger, now).Run(ctx, build.Config{
		ProjectDir: repo,
		TagPrefix:  "v",
		AboutPath:  filepath.Join("warehouse", "__about__.py"),
		Metadata:   about.Default(),
		Sign:       false, // no GPG key in the test environment
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if buildResult.TagName != "v26.8.0" {
		t.Fatalf("tag name: want v26.8.0 got %s", buildResult.TagName)
	}

	tags, err := git.ListTags(ctx, repo, "v26.8.*")
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "v26.8.0" {
		t.Fatalf("unexpected tags: %#v", tags)
	}

	branch, err := git.CurrentBranch(ctx, repo)
	if err != nil {
		t.Fatalf("current branch: %v", err)
	}
	if branch != "main" {
		t.Fatalf("expected to be back on main, got %s", branch)
	}

	content, err := os.ReadFile(filepath.Join(repo, "warehouse", "__about__.py"))
	if err != nil {
		t.Fatalf("reading about file: %v", err)
	}
	if !strings.Contains(string(content), `__version__ = "26.8.1.dev0"`) {
		t.Fatalf("about file missing dev version:\n%s", content)
	}

	entries, err := os.ReadDir(filepath.Join(repo, "dist"))
	if err != nil {
		t.Fatalf("reading dist: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(entries))
	}

	// upload: hands both artifacts to twine.
	uploadResult, err := upload.NewService(runner, logger).Run(ctx, upload.Config{
		ProjectDir: repo,
		Repository: "testpypi",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(uploadResult.Files) != 2 {
		t.Fatalf("unexpected upload files: %#v", uploadResult.Files)
	}

	log, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading tool log: %v", err)
	}
	if !strings.Contains(string(log), "twine upload -r testpypi") {
		t.Fatalf("twine invocation missing from log:\n%s", log)
	}
	if strings.Contains(string(log), "tox -e packaging") {
		t.Fatalf("packaging env should have been skipped:\n%s", log)
	}
}
