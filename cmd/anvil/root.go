// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/internal/ctxlog"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// noColor disables colored output
	noColor bool
)

func init() {
	cobra.OnInitialize(initRootConfig)
}

// NewRootCommand builds the root command with global flags and all
// subcommands attached. Output streams come from the App so tests can
// capture them.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "anvil",
		Short: "A declarative build config engine",
		Long: TitleStyle.Render("anvil") + SubtitleStyle.Render(" - A declarative build config engine") + `

anvil turns a repository's anvil.json into a fully resolved build
context: project groups are expanded against the source tree, the build
version is chosen from its ranked sources, and optional native, Rust,
Go, and Unity build sections are probed and filled in.

Configs are plain JSON. Older flat-layout documents are recognized
everywhere and can be upgraded in place with 'anvil migrate'.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'anvil init' in your repository root
  2. Describe your project groups in anvil.json
  3. Run 'anvil resolve' to see the resolved build context

` + SubtitleStyle.Render("Examples:") + `
  anvil resolve             Resolve and summarize the build context
  anvil resolve --json      Emit the resolved context as JSON
  anvil validate            Check the config against schema and repository
  anvil migrate --dry-run   Preview a legacy config upgrade
  anvil explain <code>      Explain a validation finding by code`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{ReportTimestamp: false})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/anvil/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newMigrateCommand(app))
	rootCmd.AddCommand(newInitCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and command tree and runs it.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig hydrates the environment and applies config-driven flag
// defaults before any command runs.
func initRootConfig() {
	// Pull a local .env file into the process environment before resolution
	// reads it. A missing file is the normal case.
	_ = godotenv.Load()

	// The charm stack honors NO_COLOR; setting it here covers lipgloss,
	// glamour, and fang in one place.
	if noColor {
		_ = os.Setenv("NO_COLOR", "1")
	}

	// Apply verbose from config if not set via flag. Load failures are not
	// reported here: every command loads the config again through the App and
	// renders the failure diagnostic exactly once.
	cfg, err := config.NewProvider().Load(context.Background(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err == nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}
