// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/anvil-build/anvil/pkg/buildfile"
)

// nativeMarker is the conventional path probed when the document carries no
// nativeBuild section.
var nativeMarker = filepath.Join("native", "CMakeLists.txt")

// resolveNative builds the native sub-context. An explicit enabled:false
// wins over any filesystem evidence; an absent section participates only
// when the conventional CMake marker exists under the repo root.
func resolveNative(section *buildfile.NativeSection, root string, env buildfile.EnvProvider) (*NativeContext, error) {
	if section.IsDisabledExplicitly() {
		return nil, nil
	}
	if section == nil {
		if !fileExists(filepath.Join(root, nativeMarker)) {
			return nil, nil
		}
		section = &buildfile.NativeSection{}
	}

	sourceDir := section.SourceDir
	if sourceDir == "" {
		sourceDir = "native"
	}
	buildDir := section.BuildDir
	if buildDir == "" {
		buildDir = filepath.Join(sourceDir, "build")
	}

	nc := &NativeContext{
		SourceDir:     resolveAgainst(root, sourceDir),
		BuildDir:      resolveAgainst(root, buildDir),
		Configuration: configurationOrDefault(section.Configuration),
		Generator:     section.Generator,
		ArtifactGlobs: globsOrDefault(section.ArtifactGlobs, nativeArtifactGlobs),
	}

	argv, err := splitArgs(section.ExtraArgs, env)
	if err != nil {
		return nil, fmt.Errorf("invalid nativeBuild extraArgs: %w", err)
	}
	nc.ExtraArgv = argv

	if env != nil {
		if v, ok := env.Lookup(VcpkgRootVar); ok {
			nc.ToolchainRoot = strings.TrimSpace(v)
		}
	}

	return nc, nil
}

// splitArgs shell-splits an extraArgs string into argv. Variable references
// expand through the injected provider only; a nil provider expands every
// variable to the empty string, never to the process environment.
func splitArgs(extraArgs string, env buildfile.EnvProvider) ([]string, error) {
	if strings.TrimSpace(extraArgs) == "" {
		return nil, nil
	}
	lookup := func(name string) string {
		if env == nil {
			return ""
		}
		v, _ := env.Lookup(name)
		return v
	}
	argv, err := shell.Fields(extraArgs, lookup)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, nil
	}
	return argv, nil
}

// configurationOrDefault falls back to DefaultConfiguration for blank
// configuration values.
func configurationOrDefault(cfg string) string {
	if strings.TrimSpace(cfg) == "" {
		return DefaultConfiguration
	}
	return cfg
}

// globsOrDefault returns a copy of the declared globs, or of the toolchain
// default set when none are declared.
func globsOrDefault(globs, fallback []string) []string {
	if len(globs) > 0 {
		return slices.Clone(globs)
	}
	return slices.Clone(fallback)
}
