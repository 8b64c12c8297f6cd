// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for anvil.
//
// This package implements the Cobra command hierarchy for the anvil CLI:
// the root command plus subcommands for resolving, validating, migrating,
// and scaffolding build configs, along with user-level tool settings.
package cmd
