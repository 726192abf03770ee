package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warehouse-tools/whrel/internal/config"
	"github.com/warehouse-tools/whrel/internal/domain/about"
	"github.com/warehouse-tools/whrel/internal/execx"
	"github.com/warehouse-tools/whrel/internal/gitx"
	"github.com/warehouse-tools/whrel/internal/logging"
	"github.com/warehouse-tools/whrel/internal/report"
	"github.com/warehouse-tools/whrel/internal/services/build"
	"github.com/warehouse-tools/whrel/internal/services/testsuite"
	"github.com/warehouse-tools/whrel/internal/services/upload"
	"github.com/warehouse-tools/whrel/internal/ui"
	"github.com/warehouse-tools/whrel/internal/version"
)

const (
	envProjectDir = "WHREL_PROJECT_DIR"
	envLogLevel   = "WHREL_LOG_LEVEL"
	envTagPrefix  = "WHREL_TAG_PREFIX"
	envAboutPath  = "WHREL_ABOUT_PATH"
	envDatabase   = "WHREL_DATABASE_URL"
	envSkipEnvs   = "WHREL_SKIP_ENVS"
	envRepository = "WHREL_REPOSITORY"
	envSign       = "WHREL_SIGN"
)

// Execute runs the CLI root command with the provided context.
func Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRootCommand().ExecuteContext(ctx)
}

type rootFlagSet struct {
	projectDir *stringFlag
	logLevel   *stringFlag
	tagPrefix  *stringFlag
	aboutPath  *stringFlag
}

type releaseFlagSet struct {
	database   *stringFlag
	skipEnvs   *stringSliceFlag
	repository *stringFlag
	sign       *boolFlag
}

type runtimeConfig struct {
	resolver   config.Resolver
	logger     *zap.Logger
	runner     execx.Runner
	git        gitx.Client
	projectDir string
	tagPrefix  string
	aboutPath  string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "whrel",
		Short:         "Warehouse release automation",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("whrel {{.Version}}\n")

	flags := bindRootFlags(cmd)
	cmd.AddCommand(
		newTestCommand(flags),
		newBuildCommand(flags),
		newUploadCommand(flags),
		newAllCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "whrel %s\nbuild date: %s\n", version.Version, version.BuildDate); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		projectDir: bindStringFlag(fs, "project-dir", "project-dir", "", envProjectDir, ".", "Repository root the release operates on"),
		logLevel:   bindStringFlag(fs, "log-level", "log-level", "", envLogLevel, logging.LevelTerse, "Log verbosity (terse or verbose; verbose streams subprocess output)"),
		tagPrefix:  bindStringFlag(fs, "tag-prefix", "tag-prefix", "", envTagPrefix, "v", "String prepended to release tag names"),
		aboutPath:  bindStringFlag(fs, "about-path", "about-path", "", envAboutPath, filepath.Join("warehouse", "__about__.py"), "Path of the generated metadata file, relative to the project dir"),
	}
}

func bindTestFlags(fs *releaseFlagSet, cmd *cobra.Command) {
	flags := cmd.Flags()
	fs.database = bindStringFlag(flags, "database", "database", "", envDatabase, "", "Database URL exported to the test suite")
	fs.skipEnvs = bindStringSliceFlag(flags, "skip-envs", "skip-envs", "", envSkipEnvs, []string{"packaging"}, "Tox environments excluded from the run")
}

func bindUploadFlags(fs *releaseFlagSet, cmd *cobra.Command) {
	flags := cmd.Flags()
	fs.repository = bindStringFlag(flags, "repository", "repository", "r", envRepository, "", "Target repository from the twine configuration (default index when empty)")
	if fs.sign == nil {
		fs.sign = bindBoolFlag(flags, "sign", "sign", "", envSign, true, "GPG-sign tags and uploads")
	}
}

func bindSignFlag(fs *releaseFlagSet, cmd *cobra.Command) {
	fs.sign = bindBoolFlag(cmd.Flags(), "sign", "sign", "", envSign, true, "GPG-sign tags and uploads")
}

func newTestCommand(rootFlags *rootFlagSet) *cobra.Command {
	flags := &releaseFlagSet{}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the test suite against a clean export of the working tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			return runTest(cmd.Context(), runtime, flags)
		},
	}

	bindTestFlags(flags, cmd)
	return cmd
}

func newBuildCommand(rootFlags *rootFlagSet) *cobra.Command {
	flags := &releaseFlagSet{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Tag the next release and build the distributions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			return runBuild(cmd, runtime, flags)
		},
	}

	bindSignFlag(flags, cmd)
	return cmd
}

func newUploadCommand(rootFlags *rootFlagSet) *cobra.Command {
	flags := &releaseFlagSet{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the built distributions to the package index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			return runUpload(cmd.Context(), runtime, flags)
		},
	}

	bindUploadFlags(flags, cmd)
	return cmd
}

func newAllCommand(rootFlags *rootFlagSet) *cobra.Command {
	flags := &releaseFlagSet{}

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run test, build, and upload in sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := runTest(cmd.Context(), runtime, flags); err != nil {
				return err
			}
			if err := runBuild(cmd, runtime, flags); err != nil {
				return err
			}
			return runUpload(cmd.Context(), runtime, flags)
		},
	}

	bindTestFlags(flags, cmd)
	bindUploadFlags(flags, cmd)
	return cmd
}

func runTest(ctx context.Context, runtime runtimeConfig, flags *releaseFlagSet) error {
	service := testsuite.NewService(runtime.git, runtime.runner, runtime.logger)
	cfg := testsuite.Config{
		ProjectDir:  runtime.projectDir,
		DatabaseURL: flags.database.Value(runtime.resolver),
		SkipEnvs:    flags.skipEnvs.Value(runtime.resolver),
	}

	sp := ui.NewSpinner(!runtime.verbose, "Running the release test suite...")
	sp.Start()
	result, err := service.Run(ctx, cfg)
	sp.Stop()
	if err != nil {
		return err
	}

	runtime.logger.Info("test suite passed",
		zap.Strings("envs", result.Ran),
		zap.Strings("skipped", result.Skipped),
	)
	return nil
}

func runBuild(cmd *cobra.Command, runtime runtimeConfig, flags *releaseFlagSet) error {
	sign, err := flags.sign.Value(runtime.resolver)
	if err != nil {
		return err
	}

	service := build.NewService(runtime.git, runtime.runner, runtime.logger, time.Now)
	cfg := build.Config{
		ProjectDir: runtime.projectDir,
		TagPrefix:  runtime.tagPrefix,
		AboutPath:  runtime.aboutPath,
		Metadata:   about.Default(),
		Sign:       sign,
	}

	sp := ui.NewSpinner(!runtime.verbose, "Building the release distributions...")
	sp.Start()
	result, err := service.Run(cmd.Context(), cfg)
	sp.Stop()
	if err != nil {
		return err
	}

	runtime.logger.Info("release built",
		zap.String("version", result.Version),
		zap.String("build", result.BuildTag),
		zap.String("tag", result.TagName),
		zap.String("nextDevVersion", result.NextDevVersion),
	)

	report.PrintArtifacts(cmd.OutOrStdout(), result)

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.TagName); err != nil {
		return fmt.Errorf("writing build result: %w", err)
	}
	return nil
}

func runUpload(ctx context.Context, runtime runtimeConfig, flags *releaseFlagSet) error {
	sign, err := flags.sign.Value(runtime.resolver)
	if err != nil {
		return err
	}

	service := upload.NewService(runtime.runner, runtime.logger)
	cfg := upload.Config{
		ProjectDir: runtime.projectDir,
		Repository: flags.repository.Value(runtime.resolver),
		Sign:       sign,
	}

	sp := ui.NewSpinner(!runtime.verbose, "Uploading to "+uploadTarget(cfg.Repository)+"...")
	sp.Start()
	result, err := service.Run(ctx, cfg)
	sp.Stop()
	if err != nil {
		return err
	}

	runtime.logger.Info("uploaded",
		zap.String("repository", result.Repository),
		zap.Int("files", len(result.Files)),
	)
	return nil
}

func uploadTarget(repository string) string {
	if repository == "" {
		return "PyPI"
	}
	return repository
}

func buildRuntime(flags *rootFlagSet) (runtimeConfig, func(), error) {
	nopResolver := config.NewResolver(zap.NewNop())
	logLevel := flags.logLevel.Value(nopResolver)

	logger, err := logging.New(logLevel)
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger)
	logLevel = flags.logLevel.Value(resolver)
	verbose := logLevel == logging.LevelVerbose

	runner := execx.NewRunner(logger, verbose)
	git, err := gitx.NewClient(runner)
	if err != nil {
		return runtimeConfig{}, nil, err
	}

	cleanup := func() {
		_ = logger.Sync()
	}

	return runtimeConfig{
		resolver:   resolver,
		logger:     logger,
		runner:     runner,
		git:        git,
		projectDir: flags.projectDir.Value(resolver),
		tagPrefix:  flags.tagPrefix.Value(resolver),
		aboutPath:  flags.aboutPath.Value(resolver),
		verbose:    verbose,
	}, cleanup, nil
}
