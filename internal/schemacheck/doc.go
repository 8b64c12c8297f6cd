// SPDX-License-Identifier: MPL-2.0

// Package schemacheck validates a raw build document against the embedded
// structural schema for the current document shape.
//
// The check is a collaborator of the CLI, not of the resolution core:
// parsing, resolution, and migration never call it. It catches shape
// mistakes (wrong types, unknown fields, missing required ones) before
// semantic validation reads meaning into the document. JSON is a syntactic
// subset of CUE, so the raw document bytes compile directly and unify with
// the schema definition; every unification failure comes back as a
// Violation with a JSON path.
//
// Legacy-shaped documents do not satisfy the current schema. The CLI runs
// schema detection first and routes legacy documents to migration instead
// of this check.
package schemacheck
