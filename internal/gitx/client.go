// Package gitx wraps the git command line behind a narrow interface so
// services can be tested against fakes.
package gitx

import (
	"context"
	"errors"
	"strings"

	"github.com/warehouse-tools/whrel/internal/execx"
)

// ErrNilRunner indicates the client was constructed without a runner.
var ErrNilRunner = errors.New("gitx: nil runner")

// Client describes the git operations required by the release services.
// Every operation receives the repository directory explicitly.
type Client interface {
	// ListTags returns tag names matching the glob pattern, one per entry.
	ListTags(ctx context.Context, dir, pattern string) ([]string, error)

	// Head returns the full revision hash of HEAD.
	Head(ctx context.Context, dir string) (string, error)

	// CurrentBranch returns the abbreviated name of the checked-out branch.
	CurrentBranch(ctx context.Context, dir string) (string, error)

	// ExportIndex copies the current index contents into prefix
	// (git checkout-index -f -a). The prefix must end with a path separator.
	ExportIndex(ctx context.Context, dir, prefix string) error

	// Checkout switches the working tree to the named ref.
	Checkout(ctx context.Context, dir, ref string) error

	// Add stages the provided paths.
	Add(ctx context.Context, dir string, paths ...string) error

	// Commit records the staged changes with the provided message.
	Commit(ctx context.Context, dir, message string) error

	// CreateTag creates an annotated tag at HEAD, GPG-signed when sign is set.
	CreateTag(ctx context.Context, dir, name, message string, sign bool) error
}

// ExecClient implements Client by shelling out to git.
type ExecClient struct {
	runner execx.Runner
}

// NewClient constructs an ExecClient backed by the provided runner.
func NewClient(runner execx.Runner) (*ExecClient, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	return &ExecClient{runner: runner}, nil
}

func (c *ExecClient) git(ctx context.Context, dir string, args ...string) (execx.Result, error) {
	return c.runner.Run(ctx, execx.Command{Name: "git", Args: args, Dir: dir})
}

// ListTags lists tags matching pattern.
func (c *ExecClient) ListTags(ctx context.Context, dir, pattern string) ([]string, error) {
	result, err := c.git(ctx, dir, "tag", "-l", pattern)
	if err != nil {
		return nil, err
	}
	return splitLines(result.Stdout), nil
}

// Head returns the revision hash of HEAD.
func (c *ExecClient) Head(ctx context.Context, dir string) (string, error) {
	result, err := c.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// CurrentBranch returns the abbreviated ref name of HEAD.
func (c *ExecClient) CurrentBranch(ctx context.Context, dir string) (string, error) {
	result, err := c.git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// ExportIndex exports the index into prefix.
func (c *ExecClient) ExportIndex(ctx context.Context, dir, prefix string) error {
	_, err := c.git(ctx, dir, "checkout-index", "-f", "-a", "--prefix="+prefix)
	return err
}

// Checkout switches to ref.
func (c *ExecClient) Checkout(ctx context.Context, dir, ref string) error {
	_, err := c.git(ctx, dir, "checkout", ref)
	return err
}

// Add stages paths.
func (c *ExecClient) Add(ctx context.Context, dir string, paths ...string) error {
	args := append([]string{"add"}, paths...)
	_, err := c.git(ctx, dir, args...)
	return err
}

// Commit records staged changes.
func (c *ExecClient) Commit(ctx context.Context, dir, message string) error {
	_, err := c.git(ctx, dir, "commit", "-m", message)
	return err
}

// CreateTag creates an annotated (optionally signed) tag at HEAD.
func (c *ExecClient) CreateTag(ctx context.Context, dir, name, message string, sign bool) error {
	args := []string{"tag"}
	if sign {
		args = append(args, "-s")
	} else {
		args = append(args, "-a")
	}
	args = append(args, "-m", message, name)
	_, err := c.git(ctx, dir, args...)
	return err
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
