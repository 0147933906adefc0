package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/pkg/config"
	"github.com/matzehuels/shed/pkg/deps/languages"
	"github.com/matzehuels/shed/pkg/observability"
	"github.com/matzehuels/shed/pkg/report"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	runFlags
	appName       string
	languages     []string
	pick          bool
	noDeclaration bool
}

// runCommand creates the run command, the main entry point of shed.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run [repo]",
		Short: "Inventory the dependencies and licenses of a repository",
		Long: `Inventory the dependencies and licenses of a repository.

Languages are detected from file contents, every applicable extraction
strategy runs in an isolated environment, the results are merged into one
record per package version, and each package's license is researched.
Results are written to <repo>/.shed/.

Examples:
  shed run                                 # Current directory
  shed run ./billing --app-name billing    # Explicit application name
  shed run ./monorepo --language python    # Only extract Python
  shed run ./monorepo --pick               # Choose languages interactively
  shed run . --sandbox local --no-cache    # Host toolchains, fresh research`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInventory(cmd.Context(), repoArg(args), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.appName, "app-name", "n", "", "application name (default: config app_name or the directory name)")
	cmd.Flags().StringSliceVarP(&opts.languages, "language", "l", nil, "extract only these detected languages")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose languages interactively")
	cmd.Flags().BoolVar(&opts.noDeclaration, "no-declaration", false, "skip open_source_declaration.md")
	addRunFlags(cmd, &opts.runFlags)

	return cmd
}

// addRunFlags registers the flags shared by run and serve.
func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	cmd.Flags().StringVar(&f.sandbox, "sandbox", "", fmt.Sprintf("extractor isolation (%s or %s)", config.SandboxDocker, config.SandboxLocal))
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the license cache")
}

// runInventory executes one pipeline run against repo and prints the summary.
func (c *CLI) runInventory(ctx context.Context, repo string, opts *runOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := opts.loadConfig(repo)
	if err != nil {
		return err
	}
	appName := opts.appName
	if appName == "" {
		appName = cfg.AppName
	}

	s, err := c.newStack(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer s.Close(context.WithoutCancel(ctx))

	s.Report.SkipDeclaration = opts.noDeclaration
	s.Runner.Options.Languages = opts.languages
	if opts.pick {
		cands, err := s.Runner.Detector.Detect(ctx, repo)
		if err != nil {
			return err
		}
		langs, err := pickLanguages(cands, languages.Default, s.Runner.Options.MinConfidence)
		if err != nil {
			return fmt.Errorf("language picker: %w", err)
		}
		if langs == nil {
			printInfo("Cancelled")
			return nil
		}
		s.Runner.Options.Languages = langs
	}

	abs, err := filepath.Abs(repo)
	if err != nil {
		abs = repo
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Inventorying %s...", filepath.Base(abs)))
	observability.SetPipelineHooks(&spinnerHooks{spinner: spinner, repo: filepath.Base(abs)})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})

	prog := newProgress(logger)
	spinner.Start()
	summary, err := s.Runner.Execute(ctx, repo, appName)
	if err != nil {
		spinner.StopWithError("Run aborted")
		if summary != nil {
			printSummary(summary, true)
		}
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Inventoried %s", summary.AppName))
	prog.done("run complete", "run", summary.RunID, "records", len(summary.Records))

	printSummary(summary, logger.GetLevel() <= log.DebugLevel)
	printNewline()

	paths := report.PathsFor(summary.Repo)
	printFile(paths.Dependencies)
	printFile(paths.Diagnostics)
	if !opts.noDeclaration {
		printFile(paths.Declaration)
		printNewline()
		printNextStep("Review", "shed declaration "+repo)
	}
	return nil
}
