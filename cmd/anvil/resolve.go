// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/internal/ctxlog"
	"github.com/anvil-build/anvil/internal/discovery"
	"github.com/anvil-build/anvil/internal/issue"
	"github.com/anvil-build/anvil/pkg/buildctx"
	"github.com/anvil-build/anvil/pkg/buildfile"

	"github.com/spf13/cobra"
)

var (
	resolveDir     string
	resolveVersion string
	resolveJSON    bool
)

// newResolveCommand creates the `anvil resolve` command.
// It locates the build config governing --dir, loads it (upgrading legacy
// documents in memory), and prints the fully resolved build context.
func newResolveCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the build context from anvil.json",
		Long: `Resolve the repository's build config into a full build context.

The config is searched for starting at --dir and walking toward the
filesystem root, checking anvil.json and build/anvil.json in each
directory. Project groups are expanded against the source tree, the build
version is chosen from its ranked sources, and optional native, Rust, Go,
and Unity sections are probed and filled in.

Legacy flat-layout documents are recognized and upgraded in memory for the
invocation; the file on disk is not touched. Run 'anvil migrate' to upgrade
it permanently.

Examples:
  anvil resolve                     Summarize the resolved build context
  anvil resolve --json              Emit the context as JSON for tooling
  anvil resolve --version 2.1.0     Inject an explicit version candidate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, app)
		},
	}

	cmd.Flags().StringVarP(&resolveDir, "dir", "d", ".", "directory to start the config search from")
	cmd.Flags().StringVar(&resolveVersion, "version", "", "explicit build version candidate")
	cmd.Flags().BoolVar(&resolveJSON, "json", false, "emit the resolved context as JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, app *App) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	logger := ctxlog.FromContext(cmd.Context())

	cfg, diags := app.loadConfig(cmd.Context())
	app.Diagnostics.Render(cmd.Context(), diags, stderr)
	if hasErrorDiagnostic(diags) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	configPath, repoRoot, err := locateWorkspace(resolveDir, cfg)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigNotFoundCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	logger.Debug("resolving build context", "config", configPath, "root", repoRoot)

	bf, err := loadDocument(cmd, app, cfg, configPath)
	if err != nil {
		return err
	}

	resolver := buildctx.New(
		buildctx.WithFinder(app.Finder),
		buildctx.WithEnv(app.Env),
		buildctx.WithExplicitVersion(resolveVersion),
	)

	bc, notes, err := resolver.ResolveWithNotes(cmd.Context(), bf, repoRoot)
	if err != nil {
		fmt.Fprintf(stderr, "%s Resolution failed: %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	for _, note := range notes {
		codeTag := codeTagStyle.Render(fmt.Sprintf("[%s]", note.Code))
		fmt.Fprintf(stderr, "%s %s %s\n", infoIcon, codeTag, note.Message)
	}

	if resolveJSON {
		out, err := json.MarshalIndent(bc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode build context: %w", err)
		}
		fmt.Fprintln(stdout, string(out))
		return nil
	}

	printContextSummary(stdout, bc)
	return nil
}

// loadDocument reads and parses the config file, transparently upgrading
// legacy documents in memory. The file on disk is never modified here.
func loadDocument(cmd *cobra.Command, app *App, cfg *config.Config, configPath string) (*buildfile.BuildFile, error) {
	stderr := cmd.ErrOrStderr()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build config at %s: %w", configPath, err)
	}

	doc, err := buildfile.ParseRawBytes(data, configPath)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigParseErrorCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return nil, &ExitError{Code: 1}
	}

	if buildfile.DetectSchema(doc) == buildfile.SchemaLegacy {
		app.Diagnostics.Render(cmd.Context(), []discovery.Diagnostic{
			discovery.NewDiagnosticWithPath(discovery.SeverityWarning, discovery.CodeLegacySchemaDetected,
				"legacy config schema detected; run 'anvil migrate' to upgrade the file", configPath),
		}, stderr)

		bf, _, err := buildfile.MigrateDocument(doc)
		if err != nil {
			fmt.Fprintf(stderr, "%s Failed to upgrade legacy document: %s\n", errorIcon, err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return nil, &ExitError{Code: 1}
		}
		bf.FilePath = configPath
		return bf, nil
	}

	bf, err := buildfile.ParseBytes(data, configPath)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigParseErrorCode).Render(issueStyle(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return nil, &ExitError{Code: 1}
	}
	return bf, nil
}

// printContextSummary renders the styled human-readable form of a context.
func printContextSummary(stdout io.Writer, bc *buildctx.BuildContext) {
	fmt.Fprintln(stdout, headingStyle.Render("Build Context"))
	fmt.Fprintf(stdout, "%s Config: %s\n", infoIcon, pathStyle.Render(bc.ConfigPath))
	fmt.Fprintf(stdout, "%s Root: %s\n", infoIcon, pathStyle.Render(bc.RepoRoot))
	fmt.Fprintf(stdout, "%s Version: %s\n", infoIcon, SuccessStyle.Render(bc.Version))
	if bc.Solution != "" {
		fmt.Fprintf(stdout, "%s Solution: %s\n", infoIcon, pathStyle.Render(bc.Solution))
	}

	printProjectBucket(stdout, "Compile", bc.CompileProjects, bc.RepoRoot)
	printProjectBucket(stdout, "Publish", bc.PublishProjects, bc.RepoRoot)
	printProjectBucket(stdout, "Pack", bc.PackProjects, bc.RepoRoot)

	printToolchains(stdout, bc)

	total := len(bc.CompileProjects) + len(bc.PublishProjects) + len(bc.PackProjects)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s Resolved %d project(s)\n", successIcon, total)
}

// printProjectBucket lists one action bucket's projects relative to the root.
func printProjectBucket(stdout io.Writer, label string, projects []string, root string) {
	if len(projects) == 0 {
		return
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s (%d):\n", SubtitleStyle.Render(label), len(projects))
	for _, project := range projects {
		rel, err := filepath.Rel(root, project)
		if err != nil {
			rel = project
		}
		fmt.Fprintf(stdout, "  %s %s\n", infoIcon, rel)
	}
}

// printToolchains summarizes the optional toolchain sub-contexts, one line each.
func printToolchains(stdout io.Writer, bc *buildctx.BuildContext) {
	if bc.Native == nil && bc.Rust == nil && bc.Go == nil && bc.Unity == nil {
		return
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s:\n", SubtitleStyle.Render("Toolchains"))
	if bc.Native != nil {
		fmt.Fprintf(stdout, "  %s native: %s (%s)\n", successIcon, pathStyle.Render(bc.Native.SourceDir), bc.Native.Configuration)
	}
	if bc.Rust != nil {
		detail := bc.Rust.Configuration
		if bc.Rust.PackageName != "" {
			detail = bc.Rust.PackageName + ", " + detail
		}
		fmt.Fprintf(stdout, "  %s rust: %s (%s)\n", successIcon, pathStyle.Render(bc.Rust.ManifestPath), detail)
	}
	if bc.Go != nil {
		detail := "module unresolved"
		if bc.Go.ModulePath != "" {
			detail = bc.Go.ModulePath
		}
		fmt.Fprintf(stdout, "  %s go: %s (%s)\n", successIcon, pathStyle.Render(bc.Go.ModuleDir), detail)
	}
	if bc.Unity != nil {
		detail := "editor version unknown"
		if bc.Unity.EditorVersion != "" {
			detail = "editor " + bc.Unity.EditorVersion
		}
		fmt.Fprintf(stdout, "  %s unity: %s (%s)\n", successIcon, pathStyle.Render(bc.Unity.ProjectDir), detail)
	}
}
