// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/internal/config"
	"github.com/anvil-build/anvil/pkg/buildfile"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `anvil config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage anvil configuration",
		Long: `Manage anvil's user-level configuration.

Configuration is stored in:
  - Linux: ~/.config/anvil/config.yaml
  - macOS: ~/Library/Application Support/anvil/config.yaml
  - Windows: %APPDATA%\anvil\config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initUserConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), config.GenerateYAML(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	stdout := cmd.OutOrStdout()

	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(stdout)

	// Derive the config file path from the standard config directory; the
	// provider does not cache resolved paths.
	if cfgDir, dirErr := config.ConfigDir(); dirErr == nil {
		cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if fileExistsCheck(cfgPath) {
			fmt.Fprintf(stdout, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Fprintf(stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	} else {
		fmt.Fprintf(stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(stdout)

	if cfg.BuildFileName == "" {
		fmt.Fprintf(stdout, "%s: %s\n", keyStyle.Render("build_file_name"),
			SubtitleStyle.Render("(canonical: "+buildfile.ConfigFileName+")"))
	} else {
		fmt.Fprintf(stdout, "%s: %s\n", keyStyle.Render("build_file_name"), valueStyle.Render(cfg.BuildFileName.String()))
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(stdout, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(stdout, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initUserConfig(cmd *cobra.Command) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", successIcon, cfgPath)

	return nil
}

func showConfigPath(cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))

	return nil
}

func setConfigValue(cmd *cobra.Command, app *App, key, value string) error {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	switch key {
	case "build_file_name":
		name := config.BuildFileName(value)
		if ok, errs := name.IsValid(); !ok {
			return errs[0]
		}
		cfg.BuildFileName = name

	case "ui.color_scheme":
		scheme := config.ColorScheme(value)
		if ok, errs := scheme.IsValid(); !ok {
			return errs[0]
		}
		cfg.UI.ColorScheme = scheme

	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: build_file_name, ui.color_scheme, ui.verbose", key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s\n", successIcon, key, value)
	return nil
}

// fileExistsCheck reports whether path names an existing regular file.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
