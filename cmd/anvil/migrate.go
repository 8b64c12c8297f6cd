// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/internal/ctxlog"
	"github.com/anvil-build/anvil/internal/issue"
	"github.com/anvil-build/anvil/pkg/buildfile"

	"github.com/spf13/cobra"
)

var (
	migrateDir    string
	migrateDryRun bool
)

// newMigrateCommand creates the `anvil migrate` command.
func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade a legacy config to the current schema",
		Long: `Upgrade a legacy flat-layout config to the current schema, in place.

The legacy hostsDir/pluginsDir/contractsDir settings become project groups
named after their roles, carrying the actions the old executor implied:
executables publish, libraries and contracts pack. Everything the old
document expressed is preserved; nothing is invented.

The write is staged: the migrated document is verified in memory, written
to a temporary file, the original is copied to <config>.bak, and the
temporary file is atomically renamed over the original. An existing backup
is never overwritten. A document already using the current schema is a
complete no-op.

Examples:
  anvil migrate             Upgrade the config governing the current directory
  anvil migrate --dry-run   Print the would-be document without touching disk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, app)
		},
	}

	cmd.Flags().StringVarP(&migrateDir, "dir", "d", ".", "directory to start the config search from")
	cmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "print the migrated document to stdout without writing")

	return cmd
}

func runMigrate(cmd *cobra.Command, app *App) error {
	stderr := cmd.ErrOrStderr()

	cfg, diags := app.loadConfig(cmd.Context())
	app.Diagnostics.Render(cmd.Context(), diags, stderr)
	if hasErrorDiagnostic(diags) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	configPath, _, err := locateWorkspace(migrateDir, cfg)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigNotFoundCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	if migrateDryRun {
		return runMigratePreview(cmd, cfg, configPath)
	}

	ctxlog.FromContext(cmd.Context()).Debug("migrating build config", "config", configPath)

	result, err := buildfile.MigrateFile(cmd.Context(), configPath)
	if err != nil {
		return renderMigrateFailure(cmd, cfg, err)
	}

	stdout := cmd.OutOrStdout()
	if !result.Migrated {
		fmt.Fprintf(stdout, "%s Config already uses the current schema; nothing to migrate\n", successIcon)
		return nil
	}

	fmt.Fprintf(stdout, "%s Migrated %s\n", successIcon, pathStyle.Render(result.MigratedPath))
	fmt.Fprintf(stdout, "%s Backup: %s\n", infoIcon, pathStyle.Render(result.BackupPath))
	fmt.Fprintln(stdout)
	printMigrationChanges(stdout, result.Changes)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s Migrated document re-parses as current schema\n", successIcon)

	return nil
}

// runMigratePreview performs the dry run: change list to stderr, would-be
// document alone to stdout so the output stays pipeable.
func runMigratePreview(cmd *cobra.Command, cfg *config.Config, configPath string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	preview, err := buildfile.PreviewMigration(configPath)
	if err != nil {
		return renderMigrateFailure(cmd, cfg, err)
	}

	if preview.Schema == buildfile.SchemaCurrent {
		fmt.Fprintf(stdout, "%s Config already uses the current schema; nothing to migrate\n", successIcon)
		return nil
	}

	fmt.Fprintln(stderr, headingStyle.Render("Migration Preview"))
	fmt.Fprintf(stderr, "%s Config: %s\n", infoIcon, pathStyle.Render(configPath))
	fmt.Fprintf(stderr, "%s Dry run: nothing will be written\n", infoIcon)
	fmt.Fprintln(stderr)
	printMigrationChanges(stderr, preview.Changes)
	fmt.Fprintln(stderr)

	_, _ = stdout.Write(preview.Document)
	return nil
}

// renderMigrateFailure maps migration failures onto their documented issues.
func renderMigrateFailure(cmd *cobra.Command, cfg *config.Config, err error) error {
	stderr := cmd.ErrOrStderr()

	switch {
	case errors.Is(err, buildfile.ErrBackupExists):
		rendered, _ := issue.Get(issue.BackupExistsCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
	default:
		var parseErr *buildfile.ParseError
		if errors.As(err, &parseErr) {
			rendered, _ := issue.Get(issue.ConfigParseErrorCode).Render(issueStyle(cfg))
			fmt.Fprint(stderr, rendered)
			break
		}

		var migErr *buildfile.MigrationError
		if errors.As(err, &migErr) {
			rendered, _ := issue.Get(issue.MigrationFailedCode).Render(issueStyle(cfg))
			fmt.Fprint(stderr, rendered)
		}
	}

	fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: 1}
}

// printMigrationChanges lists applied (or would-be) transformations.
func printMigrationChanges(w io.Writer, changes []string) {
	fmt.Fprintf(w, "%s:\n", SubtitleStyle.Render(fmt.Sprintf("Changes (%d)", len(changes))))
	for i, change := range changes {
		fmt.Fprintf(w, "  %d. %s\n", i+1, change)
	}
}
