// SPDX-License-Identifier: MPL-2.0

// Package discovery locates project definition files beneath group source
// directories.
//
// A Finder walks a base directory recursively, collecting files whose
// extension marks them as project definitions (.csproj, .fsproj, .vbproj)
// while skipping generated and vendor directories at every level so build
// output never shadows source projects. Raw walk results are memoized per
// base directory, so the semantic validator and the context resolver share
// a single walk of each tree within one invocation.
//
// A missing base directory is not an error: the walk returns an empty list
// and callers that care (the semantic validator) flag it separately.
// Non-fatal anomalies encountered mid-walk (unreadable subdirectories) are
// returned as Diagnostics rather than written to stderr, so the CLI layer
// owns all rendering policy.
package discovery
