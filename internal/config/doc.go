// SPDX-License-Identifier: MPL-2.0

// Package config handles user-level application configuration using Viper
// with YAML as the file format.
//
// Configuration is loaded from ~/.config/anvil/config.yaml (or XDG
// equivalent on Linux, ~/Library/Application Support/anvil/config.yaml on
// macOS, %APPDATA%\anvil\config.yaml on Windows). Settings cover terminal
// rendering (color scheme, default verbosity) and a build config file name
// override for repositories that cannot carry an anvil.json.
//
// These settings never affect resolution semantics: a repository resolves
// identically on every machine regardless of what this file contains. A
// missing file yields defaults without error; the CLI degrades a corrupt
// file to defaults with a warning.
package config
