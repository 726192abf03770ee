package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/config"
)

func TestRootHelpListsReleaseCommands(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("help: %v", err)
	}

	out := buf.String()
	for _, name := range []string{"test", "build", "upload", "all", "version"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help output missing %q:\n%s", name, out)
		}
	}
}

func TestVersionCommandPrintsBuildMetadata(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version: %v", err)
	}

	if !strings.Contains(buf.String(), "whrel") {
		t.Fatalf("unexpected version output: %s", buf.String())
	}
}

func TestBuildRuntimeRejectsUnknownLogLevel(t *testing.T) {
	flags := &rootFlagSet{
		projectDir: bindStringFlag(nil, "project-dir", "project-dir", "", "", ".", ""),
		logLevel:   bindStringFlag(nil, "log-level", "log-level", "", "", "chatty", ""),
		tagPrefix:  bindStringFlag(nil, "tag-prefix", "tag-prefix", "", "", "v", ""),
		aboutPath:  bindStringFlag(nil, "about-path", "about-path", "", "", "warehouse/__about__.py", ""),
	}

	if _, _, err := buildRuntime(flags); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestDescribeUsageMentionsEnvKey(t *testing.T) {
	t.Parallel()

	if got := describeUsage("Repository root", "WHREL_PROJECT_DIR"); got != "Repository root (env: WHREL_PROJECT_DIR)" {
		t.Fatalf("unexpected usage: %q", got)
	}
	if got := describeUsage("", "WHREL_PROJECT_DIR"); got != "env: WHREL_PROJECT_DIR" {
		t.Fatalf("unexpected usage: %q", got)
	}
}

func TestStringSliceFlagSanitizesValues(t *testing.T) {
	t.Parallel()

	f := bindStringSliceFlag(nil, "skip-envs", "skip-envs", "", "", []string{" packaging ", ""}, "")
	resolver := config.NewResolver(zap.NewNop())

	values := f.Value(resolver)
	if len(values) != 1 || values[0] != "packaging" {
		t.Fatalf("unexpected values: %#v", values)
	}
}
