// SPDX-License-Identifier: MPL-2.0

// Package buildctx resolves a parsed build document into the immutable
// BuildContext that build-step executors consume.
//
// Resolution turns declarations into facts: project groups become sorted
// lists of discovered project file paths, the version precedence chain
// collapses to a single effective version, optional toolchain sections
// (native, Rust, Go, Unity) become typed sub-contexts with filesystem-probed
// defaults, and role-named groups are mirrored into the legacy configuration
// shape older executors still read.
//
// A BuildContext is built fresh on every resolve and is never mutated
// afterwards. All filesystem paths in it are absolute; all project lists are
// sorted by full path. Per-group discovery runs in parallel, bounded, and is
// all-or-nothing: a cancelled or failed resolve returns no partial context.
package buildctx
