// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides comprehensive benchmarks for PGO profile generation.
// These benchmarks cover all hot paths in the anvil codebase:
//   - JSON parsing and schema detection
//   - CUE structural validation
//   - Legacy document migration
//   - Project discovery walks, cold and memoized
//   - Full build context resolution and semantic validation
//
// To generate a PGO profile, run:
//
//	go test -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
