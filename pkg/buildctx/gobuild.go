// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/anvil-build/anvil/pkg/buildfile"
)

// goMarkerDirs are the conventional module locations, probed in order, both
// when the document carries no goBuild section and when a section declares
// no moduleDir.
var goMarkerDirs = []string{"go", "."}

// resolveGo builds the Go sub-context. An explicit enabled:false wins over
// any filesystem evidence; an absent section participates only when a go.mod
// exists at a conventional location. A missing go.mod is tolerated; a
// malformed one is not.
func resolveGo(section *buildfile.GoSection, root string, env buildfile.EnvProvider) (*GoContext, error) {
	if section.IsDisabledExplicitly() {
		return nil, nil
	}
	if section == nil {
		dir := probeModuleDir(root)
		if dir == "" {
			return nil, nil
		}
		section = &buildfile.GoSection{ModuleDir: dir}
	}

	moduleDir := section.ModuleDir
	if moduleDir == "" {
		if dir := probeModuleDir(root); dir != "" {
			moduleDir = dir
		} else {
			moduleDir = goMarkerDirs[0]
		}
	}

	gc := &GoContext{
		ModuleDir:     resolveAgainst(root, moduleDir),
		ArtifactGlobs: globsOrDefault(section.ArtifactGlobs, goArtifactGlobs),
	}

	argv, err := splitArgs(section.ExtraArgs, env)
	if err != nil {
		return nil, fmt.Errorf("invalid goBuild extraArgs: %w", err)
	}
	gc.ExtraArgv = argv

	gomod := filepath.Join(gc.ModuleDir, "go.mod")
	if fileExists(gomod) {
		data, err := os.ReadFile(gomod)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", gomod, err)
		}
		f, err := modfile.ParseLax(gomod, data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", gomod, err)
		}
		if f.Module != nil {
			gc.ModulePath = f.Module.Mod.Path
		}
	}

	return gc, nil
}

// probeModuleDir returns the first conventional directory under root holding
// a go.mod, or the empty string.
func probeModuleDir(root string) string {
	for _, dir := range goMarkerDirs {
		if fileExists(filepath.Join(root, dir, "go.mod")) {
			return dir
		}
	}
	return ""
}
