// SPDX-License-Identifier: MPL-2.0

// Package hostenv is the single gateway to process environment variables.
//
// Resolution code never calls os.Getenv directly: it receives a Provider and
// asks it. That keeps version resolution and toolchain hints deterministic
// under test (swap in Map) and makes every environment read auditable.
package hostenv

import (
	"os"

	"github.com/caarlos0/env/v11"
)

// Well-known variable names read during resolution.
const (
	// DefaultVersionVar is consulted when the build config does not override
	// the version variable name via versionEnv.
	DefaultVersionVar = "Version"

	// GitVersionVar is populated by GitVersion-style CI tooling and serves as
	// a fallback when no explicit version is available.
	GitVersionVar = "GITVERSION_MAJORMINORPATCH"

	// VcpkgRootVar points at a vcpkg installation; the native build context
	// surfaces it as the toolchain root hint.
	VcpkgRootVar = "VCPKG_ROOT"
)

type (
	// Provider is the environment capability handed to resolution code.
	// Implementations must be safe for concurrent use.
	Provider interface {
		// Lookup retrieves the value of the named variable. The boolean is
		// false when the variable is unset; set-but-empty returns ("", true).
		Lookup(key string) (string, bool)
	}

	// Snapshot captures the well-known variables in typed form. It is taken
	// once per resolution so log output and sub-context builders agree on
	// what the environment looked like.
	Snapshot struct {
		GitVersion string `env:"GITVERSION_MAJORMINORPATCH"`
		VcpkgRoot  string `env:"VCPKG_ROOT"`
	}

	osProvider struct{}

	mapProvider map[string]string
)

// OS returns a Provider backed by the real process environment.
func OS() Provider {
	return osProvider{}
}

// Map returns a Provider backed by the given map. Intended for tests and for
// replaying a captured environment. The map is used as-is, not copied.
func Map(vars map[string]string) Provider {
	return mapProvider(vars)
}

func (osProvider) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (m mapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Capture takes a Snapshot from the real process environment.
func Capture() (Snapshot, error) {
	var snap Snapshot
	if err := env.Parse(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CaptureFrom takes a Snapshot through a Provider, so fakes see the same
// parsing rules as the real environment.
func CaptureFrom(p Provider) Snapshot {
	vars := make(map[string]string, 2)
	for _, key := range []string{GitVersionVar, VcpkgRootVar} {
		if v, ok := p.Lookup(key); ok {
			vars[key] = v
		}
	}

	var snap Snapshot
	if err := env.ParseWithOptions(&snap, env.Options{Environment: vars}); err != nil {
		// The snapshot fields are plain strings; parsing them cannot fail.
		// Fall back to direct lookups so a future tag mistake degrades
		// gracefully instead of dropping the environment on the floor.
		snap.GitVersion, _ = p.Lookup(GitVersionVar)
		snap.VcpkgRoot, _ = p.Lookup(VcpkgRootVar)
	}
	return snap
}
