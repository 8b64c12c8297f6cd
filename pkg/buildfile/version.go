// SPDX-License-Identifier: MPL-2.0

package buildfile

import "strings"

const (
	// DefaultVersionEnvVar is the environment variable consulted when the
	// document does not name one via versionEnv.
	DefaultVersionEnvVar = "Version"

	// GitVersionEnvVar is the GitVersion CI variable used as a late fallback.
	GitVersionEnvVar = "GITVERSION_MAJORMINORPATCH"

	// FallbackVersion is the literal returned when every other source is empty.
	FallbackVersion = "0.1.0"
)

// EnvProvider is the environment capability injected into version resolution.
// It matches the shape of internal/hostenv providers; resolution code never
// reads global process state directly.
type EnvProvider interface {
	// Lookup retrieves the value of the named variable. The boolean is false
	// when the variable is unset.
	Lookup(key string) (string, bool)
}

// ResolveVersion computes the build version from the ranked sources.
//
// Precedence, first non-empty match wins:
//  1. the document's version field
//  2. the environment variable named by versionEnv (default "Version")
//  3. the explicit parameter (e.g. a --version flag)
//  4. the GITVERSION_MAJORMINORPATCH environment variable
//  5. the document's artifactsVersion field
//  6. the literal "0.1.0"
//
// Whitespace-only values count as empty at every tier. The function never
// fails, never touches the filesystem, and reads the environment only
// through the provider. A nil document contributes nothing to tiers 1 and 5.
func ResolveVersion(bf *BuildFile, explicit string, env EnvProvider) string {
	if bf != nil {
		if v := strings.TrimSpace(bf.Version); v != "" {
			return v
		}
	}

	envVar := DefaultVersionEnvVar
	if bf != nil && strings.TrimSpace(bf.VersionEnv) != "" {
		envVar = strings.TrimSpace(bf.VersionEnv)
	}
	if env != nil {
		if v, ok := env.Lookup(envVar); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}

	if env != nil {
		if v, ok := env.Lookup(GitVersionEnvVar); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	if bf != nil {
		if v := strings.TrimSpace(bf.ArtifactsVersion); v != "" {
			return v
		}
	}

	return FallbackVersion
}
