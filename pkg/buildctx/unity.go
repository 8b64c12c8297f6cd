// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anvil-build/anvil/pkg/buildfile"
)

// unityVersionFile is ProjectVersion.txt relative to a Unity project root.
var unityVersionFile = filepath.Join("ProjectSettings", "ProjectVersion.txt")

// resolveUnity builds the Unity sub-context. An explicit enabled:false wins
// over any filesystem evidence; an absent section participates only when the
// conventional unity/ project carries a ProjectVersion.txt. A project
// without one is tolerated; a malformed one is not.
func resolveUnity(section *buildfile.UnitySection, root string) (*UnityContext, error) {
	if section.IsDisabledExplicitly() {
		return nil, nil
	}
	if section == nil {
		if !fileExists(filepath.Join(root, "unity", unityVersionFile)) {
			return nil, nil
		}
		section = &buildfile.UnitySection{ProjectDir: "unity"}
	}

	projectDir := section.ProjectDir
	if projectDir == "" {
		projectDir = "unity"
	}

	uc := &UnityContext{
		ProjectDir:  resolveAgainst(root, projectDir),
		BuildTarget: section.BuildTarget,
	}
	if section.OutputDir != "" {
		uc.OutputDir = resolveAgainst(root, section.OutputDir)
	}

	versionPath := filepath.Join(uc.ProjectDir, unityVersionFile)
	if fileExists(versionPath) {
		version, err := readEditorVersion(versionPath)
		if err != nil {
			return nil, err
		}
		uc.EditorVersion = version
	}

	return uc, nil
}

// readEditorVersion extracts m_EditorVersion from a ProjectVersion.txt,
// which Unity writes as a small YAML document.
func readEditorVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc struct {
		EditorVersion string `yaml:"m_EditorVersion"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return strings.TrimSpace(doc.EditorVersion), nil
}
