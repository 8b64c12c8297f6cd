// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/internal/issue"
	"github.com/anvil-build/anvil/internal/schemacheck"
	"github.com/anvil-build/anvil/pkg/buildfile"

	"github.com/spf13/cobra"
)

var validateDir string

// newValidateCommand creates the `anvil validate` command.
// It runs the structural schema check followed by the semantic validator and
// renders every finding in a single pass, so users see all issues at once
// rather than having to fix-and-rerun iteratively.
func newValidateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate anvil.json against schema and repository",
		Long: `Validate the repository's build config.

Validation runs in two passes. The structural pass checks the document
against the embedded schema: field types, unknown keys, malformed sections.
The semantic pass cross-checks group definitions against the repository:
source directories must exist, include entries must match discovered
projects, and no project may land in two groups.

Legacy flat-layout documents skip the structural pass (it targets the
current layout) and are upgraded in memory before the semantic pass runs.

The exit code is 1 when any error-severity finding is present; warnings
and notes alone do not fail validation.

Examples:
  anvil validate            Validate the config governing the current directory
  anvil validate --dir sub  Validate the config governing a subdirectory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, app)
		},
	}

	cmd.Flags().StringVarP(&validateDir, "dir", "d", ".", "directory to start the config search from")

	return cmd
}

func runValidate(cmd *cobra.Command, app *App) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, diags := app.loadConfig(cmd.Context())
	app.Diagnostics.Render(cmd.Context(), diags, stderr)
	if hasErrorDiagnostic(diags) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	configPath, repoRoot, err := locateWorkspace(validateDir, cfg)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigNotFoundCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	fmt.Fprintln(stdout, headingStyle.Render("Config Validation"))
	fmt.Fprintf(stdout, "%s Path: %s\n", infoIcon, pathStyle.Render(configPath))
	fmt.Fprintln(stdout)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read build config at %s: %w", configPath, err)
	}

	doc, err := buildfile.ParseRawBytes(data, configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%s JSON parsing failed\n", errorIcon)
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "  %s\n", err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	fmt.Fprintf(stdout, "%s JSON parsing passed\n", successIcon)

	var bf *buildfile.BuildFile
	if buildfile.DetectSchema(doc) == buildfile.SchemaLegacy {
		fmt.Fprintf(stdout, "%s Legacy schema detected; structural check skipped (run 'anvil migrate' to upgrade)\n", WarningStyle.Render("!"))

		bf, _, err = buildfile.MigrateDocument(doc)
		if err != nil {
			fmt.Fprintf(stderr, "%s Legacy document could not be upgraded\n", errorIcon)
			fmt.Fprintln(stderr)
			fmt.Fprintf(stderr, "  %s\n", err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitError{Code: 1}
		}
		bf.FilePath = configPath
	} else {
		if err := schemacheck.Check(data, configPath); err != nil {
			renderSchemaFailure(stderr, cfg, err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitError{Code: 1}
		}
		fmt.Fprintf(stdout, "%s Schema validation passed\n", successIcon)

		bf, err = buildfile.ParseBytes(data, configPath)
		if err != nil {
			fmt.Fprintf(stderr, "%s Document decoding failed\n", errorIcon)
			fmt.Fprintln(stderr)
			fmt.Fprintf(stderr, "  %s\n", err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitError{Code: 1}
		}
	}

	issues, err := buildfile.ValidateSemantics(cmd.Context(), bf, buildfile.ValidateOptions{
		RepoRoot: repoRoot,
		Lister:   app.Finder,
	})
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	fmt.Fprintf(stdout, "%s Semantic validation ran %s\n", successIcon,
		SubtitleStyle.Render(fmt.Sprintf("(%d finding(s))", len(issues))))

	if len(issues) > 0 {
		fmt.Fprintln(stderr)
		renderFindings(stderr, issues)
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, hintStyle.Render("Run 'anvil explain <code>' for details on any finding."))
	}

	if issues.HasErrors() {
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "%s Validation failed with %d error(s)\n", errorIcon, issues.ErrorCount())
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	fmt.Fprintln(stdout)
	if count := issues.WarningCount(); count > 0 {
		fmt.Fprintf(stdout, "%s Config is valid (%d warning(s))\n", successIcon, count)
	} else {
		fmt.Fprintf(stdout, "%s Config is valid\n", successIcon)
	}
	return nil
}

// renderSchemaFailure prints structural violations with their JSON paths, or
// the raw error when the failure was not a schema mismatch.
func renderSchemaFailure(stderr io.Writer, cfg *config.Config, err error) {
	fmt.Fprintf(stderr, "%s Schema validation failed\n", errorIcon)
	fmt.Fprintln(stderr)

	var schemaErr *schemacheck.SchemaError
	if !errors.As(err, &schemaErr) {
		fmt.Fprintf(stderr, "  %s\n", err)
		return
	}

	for i, violation := range schemaErr.Violations {
		num := fmt.Sprintf("  %d.", i+1)
		if violation.Path != "" {
			fmt.Fprintf(stderr, "%s %s %s\n", num, pathStyle.Render(violation.Path), violation.Message)
		} else {
			fmt.Fprintf(stderr, "%s %s\n", num, violation.Message)
		}
	}

	rendered, _ := issue.Get(issue.SchemaViolationCode).Render(issueStyle(cfg))
	fmt.Fprint(stderr, rendered)
}

// renderFindings prints semantic findings as a numbered list: severity,
// code tag, message, then location and suggestion detail lines.
func renderFindings(stderr io.Writer, issues buildfile.ValidationIssues) {
	fmt.Fprintf(stderr, "%s %d finding(s):\n", WarningStyle.Render("!"), len(issues))
	fmt.Fprintln(stderr)

	for i, finding := range issues {
		severity := SubtitleStyle.Render(finding.Severity.String())
		switch {
		case finding.IsError():
			severity = ErrorStyle.Render(finding.Severity.String())
		case finding.IsWarning():
			severity = WarningStyle.Render(finding.Severity.String())
		}

		num := fmt.Sprintf("  %d.", i+1)
		codeTag := codeTagStyle.Render(fmt.Sprintf("[%s]", finding.Code))
		fmt.Fprintf(stderr, "%s %s %s %s\n", num, severity, codeTag, finding.Message)

		if finding.Path != "" {
			fmt.Fprintf(stderr, "     %s\n", pathStyle.Render(finding.Path))
		}
		if finding.Suggestion != "" {
			fmt.Fprintf(stderr, "     %s\n", hintStyle.Render(finding.Suggestion))
		}
	}
}
