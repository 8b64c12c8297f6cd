// SPDX-License-Identifier: MPL-2.0

// Package buildfile defines the anvil.json document model and the operations
// that run against the raw document: parsing, config-file location, version
// resolution, schema-version detection, legacy migration, and semantic
// validation.
//
// Everything here operates on the document side of the pipeline. The resolved,
// executor-facing model lives in pkg/buildctx, which consumes this package.
//
// Filesystem and environment access is injected through small interfaces
// (ProjectLister, EnvProvider) so every operation stays a deterministic
// function of its inputs.
package buildfile
