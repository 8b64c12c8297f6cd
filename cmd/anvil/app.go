// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/internal/discovery"
	"github.com/anvil-build/anvil/internal/hostenv"
	"github.com/anvil-build/anvil/pkg/buildfile"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: all Cobra command handlers receive an App reference and
	// reach configuration, project discovery, and the process environment
	// through it instead of touching globals.
	App struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		Finder      *discovery.Finder
		Env         buildfile.EnvProvider
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp. Tests can supply mock
	// implementations to isolate specific service behavior.
	Dependencies struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		Finder      *discovery.Finder
		Env         buildfile.EnvProvider
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DiagnosticRenderer renders structured diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []discovery.Diagnostic, stderr io.Writer)
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}
	if deps.Finder == nil {
		deps.Finder = discovery.New()
	}
	if deps.Env == nil {
		deps.Env = hostenv.OS()
	}

	return &App{
		Config:      deps.Config,
		Diagnostics: deps.Diagnostics,
		Finder:      deps.Finder,
		Env:         deps.Env,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// loadConfig returns the user-level configuration for a command invocation,
// honoring the global --config flag. On load failure, it keeps the command
// operational with defaults and emits a diagnostic for the CLI to render.
func (a *App) loadConfig(ctx context.Context) (*config.Config, []discovery.Diagnostic) {
	return loadConfigWithFallback(ctx, a.Config, cfgFile)
}

// loadConfigWithFallback loads configuration via the provider. On failure it
// returns defaults with a diagnostic so callers stay operational.
//
// Diagnostic severity depends on the failure mode:
//   - Explicit --config path: always SeverityError (user-specified file must work).
//   - Default path with existing but malformed file: SeverityError (syntax errors
//     in a file the user created should not be silently downgraded to a warning).
//   - Default path with missing config dir or similar infrastructure error:
//     SeverityWarning (common on fresh installs, defaults are appropriate).
func loadConfigWithFallback(ctx context.Context, provider ConfigProvider, configPath string) (*config.Config, []discovery.Diagnostic) {
	cfg, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: configPath})
	if err == nil {
		return cfg, nil
	}

	// When the user explicitly specified a config path, do not silently fall back
	// to defaults; surface the error as a diagnostic so downstream callers can
	// decide whether to abort.
	if configPath != "" {
		return config.DefaultConfig(), []discovery.Diagnostic{{
			Severity: discovery.SeverityError,
			Code:     discovery.CodeConfigLoadFailed,
			Message:  fmt.Sprintf("failed to load config from %s: %v", configPath, err),
			Path:     configPath,
			Cause:    err,
		}}
	}

	// Default config path: differentiate "file exists but is broken" (syntax
	// error, invalid value) from "cannot determine config dir" (missing HOME,
	// etc.). The config loader only returns errors for existing files; missing
	// files silently return defaults. So if we got an error here, a config file
	// likely exists but is malformed; use SeverityError to surface it clearly.
	severity := discovery.SeverityError
	if errors.Is(err, os.ErrNotExist) {
		severity = discovery.SeverityWarning
	}

	return config.DefaultConfig(), []discovery.Diagnostic{{
		Severity: severity,
		Code:     discovery.CodeConfigLoadFailed,
		Message:  fmt.Sprintf("failed to load config, using defaults: %v", err),
		Cause:    err,
	}}
}

// locateWorkspace finds the build config governing startDir and the repository
// root it is anchored to, honoring the user-level file name override.
func locateWorkspace(startDir string, cfg *config.Config) (configPath, repoRoot string, err error) {
	return buildfile.LocateNamed(startDir, cfg.BuildFileName.String())
}

// hasErrorDiagnostic reports whether any diagnostic carries error severity.
func hasErrorDiagnostic(diags []discovery.Diagnostic) bool {
	for _, diag := range diags {
		if diag.Severity == discovery.SeverityError {
			return true
		}
	}
	return false
}

// issueStyle maps the configured color scheme onto a glamour style name.
func issueStyle(cfg *config.Config) string {
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		return "auto"
	}
}

// Render writes structured diagnostics to stderr with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []discovery.Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, diag.Message)
	}
}
