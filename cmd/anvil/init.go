// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/pkg/buildfile"

	"github.com/spf13/cobra"
)

var (
	initDir   string
	initForce bool
)

// newInitCommand creates the `anvil init` command.
func newInitCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter anvil.json",
		Long: `Create a starter anvil.json in the target directory.

The generated config declares two example project groups and the common
top-level settings, ready to be edited to match the repository. Generation
is non-interactive; there is no wizard.

The file name honors the build_file_name setting from the user config, so
repositories that cannot carry an anvil.json get their override here too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, app)
		},
	}

	cmd.Flags().StringVarP(&initDir, "dir", "d", ".", "directory to create the config in")
	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, app *App) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, diags := app.loadConfig(cmd.Context())
	app.Diagnostics.Render(cmd.Context(), diags, stderr)
	if hasErrorDiagnostic(diags) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	fileName := cfg.BuildFileName.String()
	if fileName == "" {
		fileName = buildfile.ConfigFileName
	}
	target := filepath.Join(initDir, fileName)

	if _, err := os.Stat(target); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", target)
	}

	data, err := buildfile.Encode(buildfile.Starter())
	if err != nil {
		return fmt.Errorf("failed to generate starter config: %w", err)
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(target)
	fmt.Fprintf(stdout, "%s Created %s\n", successIcon, absPath)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, SubtitleStyle.Render("Next steps:"))
	fmt.Fprintf(stdout, "  1. Edit %s to describe your project groups\n", fileName)
	fmt.Fprintln(stdout, "  2. Run 'anvil validate' to check it against the repository")
	fmt.Fprintln(stdout, "  3. Run 'anvil resolve' to see the resolved build context")

	return nil
}
