// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/anvil-build/anvil/pkg/buildfile"
)

// rustMarkers are the conventional manifest locations, probed in order, both
// when the document carries no rustBuild section and when a section declares
// no manifestPath.
var rustMarkers = []string{
	filepath.Join("rust", "Cargo.toml"),
	"Cargo.toml",
}

// cargoManifest is the slice of Cargo.toml the resolver surfaces.
type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// resolveRust builds the Rust sub-context. An explicit enabled:false wins
// over any filesystem evidence; an absent section participates only when a
// conventional Cargo manifest exists. A missing manifest file is tolerated;
// a malformed one is not.
func resolveRust(section *buildfile.RustSection, root string, env buildfile.EnvProvider) (*RustContext, error) {
	if section.IsDisabledExplicitly() {
		return nil, nil
	}
	if section == nil {
		marker := probeMarker(root, rustMarkers)
		if marker == "" {
			return nil, nil
		}
		section = &buildfile.RustSection{ManifestPath: marker}
	}

	manifestPath := section.ManifestPath
	if manifestPath == "" {
		if marker := probeMarker(root, rustMarkers); marker != "" {
			manifestPath = marker
		} else {
			manifestPath = rustMarkers[0]
		}
	}

	rc := &RustContext{
		ManifestPath:  resolveAgainst(root, manifestPath),
		Configuration: configurationOrDefault(section.Configuration),
		ArtifactGlobs: globsOrDefault(section.ArtifactGlobs, rustArtifactGlobs),
	}

	argv, err := splitArgs(section.ExtraArgs, env)
	if err != nil {
		return nil, fmt.Errorf("invalid rustBuild extraArgs: %w", err)
	}
	rc.ExtraArgv = argv

	if fileExists(rc.ManifestPath) {
		data, err := os.ReadFile(rc.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rc.ManifestPath, err)
		}
		var manifest cargoManifest
		if err := toml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", rc.ManifestPath, err)
		}
		rc.PackageName = manifest.Package.Name
		rc.WorkspaceMembers = manifest.Workspace.Members
	}

	return rc, nil
}

// probeMarker returns the first candidate that names a regular file under
// root, or the empty string.
func probeMarker(root string, candidates []string) string {
	for _, candidate := range candidates {
		if fileExists(filepath.Join(root, candidate)) {
			return candidate
		}
	}
	return ""
}
