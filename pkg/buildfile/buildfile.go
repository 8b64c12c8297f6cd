// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	// BuildFile is the typed form of an anvil.json document (current schema).
	// Field names mirror the JSON spelling; absent optional sections are nil.
	BuildFile struct {
		// Version pins the build version outright. When set it beats every
		// other version source.
		Version string `json:"version,omitempty"`
		// VersionEnv names the environment variable consulted for the version.
		// Empty means the default name "Version".
		VersionEnv string `json:"versionEnv,omitempty"`
		// ArtifactsVersion is a low-precedence version fallback, typically
		// stamped by an earlier pipeline stage.
		ArtifactsVersion string `json:"artifactsVersion,omitempty"`

		// Solution is the path to the solution file driving compile steps.
		Solution string `json:"solution,omitempty"`
		// NuGetOutputDir receives packed .nupkg files.
		NuGetOutputDir string `json:"nuGetOutputDir,omitempty"`
		// ArtifactsDir receives published output.
		ArtifactsDir string `json:"artifactsDir,omitempty"`
		// IncludeSymbols packs .snupkg symbol packages alongside .nupkg.
		IncludeSymbols bool `json:"includeSymbols,omitempty"`
		// PackProperties are extra MSBuild properties applied to pack steps.
		PackProperties map[string]string `json:"packProperties,omitempty"`
		// LocalFeed mirrors packed packages into a local NuGet feed.
		LocalFeed *LocalFeed `json:"localFeed,omitempty"`

		// Flat project lists, kept for documents that enumerate projects
		// explicitly instead of (or in addition to) using groups.
		CompileProjects []string `json:"compileProjects,omitempty"`
		PublishProjects []string `json:"publishProjects,omitempty"`
		PackProjects    []string `json:"packProjects,omitempty"`

		// ProjectGroups holds the group definitions in document declaration
		// order. Declaration order is contractual: it breaks ties when two
		// groups map onto the same legacy role.
		ProjectGroups GroupList `json:"projectGroups,omitempty"`

		// Optional per-toolchain sections.
		NativeBuild *NativeSection `json:"nativeBuild,omitempty"`
		RustBuild   *RustSection   `json:"rustBuild,omitempty"`
		GoBuild     *GoSection     `json:"goBuild,omitempty"`
		UnityBuild  *UnitySection  `json:"unityBuild,omitempty"`

		// FilePath records where the document was loaded from. Empty for
		// documents parsed from bytes.
		FilePath string `json:"-"`
	}

	// ProjectGroup describes one named bundle of projects: where they live,
	// what happens to them, and which ones are in or out.
	//
	// Groups are owned by the document. Resolution copies what it needs and
	// never mutates a group in place.
	ProjectGroup struct {
		// Name is the group's key in the projectGroups object.
		Name GroupName `json:"-"`
		// SourceDir is the directory searched for project files, relative to
		// the repo root unless absolute.
		SourceDir string `json:"sourceDir"`
		// Action selects the bucket: compile, pack, or publish. Empty means
		// compile. Unknown spellings also route to compile with a note.
		Action GroupAction `json:"action,omitempty"`
		// Include restricts the group to the named projects (base name, no
		// extension, case-insensitive). Empty means all discovered projects.
		Include []string `json:"include,omitempty"`
		// Exclude removes the named projects. Ignored when Include is set.
		Exclude []string `json:"exclude,omitempty"`
		// OutputDir overrides the destination for this group's artifacts.
		OutputDir string `json:"outputDir,omitempty"`
		// Properties are extra MSBuild properties for this group's steps.
		Properties map[string]string `json:"properties,omitempty"`
	}

	// GroupList is an ordered list of project groups. JSON objects don't
	// promise key order, so the list carries it explicitly: decoding walks
	// the token stream and appends groups as they appear in the document.
	GroupList []ProjectGroup

	// LocalFeed configures mirroring of packed packages into a local feed.
	LocalFeed struct {
		// Path is the feed directory, relative to the repo root unless absolute.
		Path string `json:"path"`
		// Clean empties the feed before mirroring.
		Clean bool `json:"clean,omitempty"`
	}

	// NativeSection is the raw nativeBuild document section.
	NativeSection struct {
		Enabled       *bool    `json:"enabled,omitempty"`
		SourceDir     string   `json:"sourceDir,omitempty"`
		BuildDir      string   `json:"buildDir,omitempty"`
		Configuration string   `json:"configuration,omitempty"`
		Generator     string   `json:"generator,omitempty"`
		ExtraArgs     string   `json:"extraArgs,omitempty"`
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// RustSection is the raw rustBuild document section.
	RustSection struct {
		Enabled       *bool    `json:"enabled,omitempty"`
		ManifestPath  string   `json:"manifestPath,omitempty"`
		Configuration string   `json:"configuration,omitempty"`
		ExtraArgs     string   `json:"extraArgs,omitempty"`
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// GoSection is the raw goBuild document section.
	GoSection struct {
		Enabled       *bool    `json:"enabled,omitempty"`
		ModuleDir     string   `json:"moduleDir,omitempty"`
		ExtraArgs     string   `json:"extraArgs,omitempty"`
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// UnitySection is the raw unityBuild document section.
	UnitySection struct {
		Enabled     *bool  `json:"enabled,omitempty"`
		ProjectDir  string `json:"projectDir,omitempty"`
		BuildTarget string `json:"buildTarget,omitempty"`
		OutputDir   string `json:"outputDir,omitempty"`
	}
)

// sectionEnabled implements the shared enabled-flag convention: a present
// section is on unless it says enabled:false.
func sectionEnabled(enabled *bool) bool {
	return enabled == nil || *enabled
}

// IsEnabled reports whether the section participates in resolution.
// A nil section is disabled; a present section is enabled unless it carries
// an explicit enabled:false.
func (s *NativeSection) IsEnabled() bool { return s != nil && sectionEnabled(s.Enabled) }

// IsEnabled reports whether the section participates in resolution.
func (s *RustSection) IsEnabled() bool { return s != nil && sectionEnabled(s.Enabled) }

// IsEnabled reports whether the section participates in resolution.
func (s *GoSection) IsEnabled() bool { return s != nil && sectionEnabled(s.Enabled) }

// IsEnabled reports whether the section participates in resolution.
func (s *UnitySection) IsEnabled() bool { return s != nil && sectionEnabled(s.Enabled) }

// IsDisabledExplicitly reports an explicit enabled:false, which suppresses
// filesystem probing entirely.
func (s *NativeSection) IsDisabledExplicitly() bool { return s != nil && !sectionEnabled(s.Enabled) }

// IsDisabledExplicitly reports an explicit enabled:false.
func (s *RustSection) IsDisabledExplicitly() bool { return s != nil && !sectionEnabled(s.Enabled) }

// IsDisabledExplicitly reports an explicit enabled:false.
func (s *GoSection) IsDisabledExplicitly() bool { return s != nil && !sectionEnabled(s.Enabled) }

// IsDisabledExplicitly reports an explicit enabled:false.
func (s *UnitySection) IsDisabledExplicitly() bool { return s != nil && !sectionEnabled(s.Enabled) }

// Group returns the group with the given name, or nil if no such group exists.
func (bf *BuildFile) Group(name GroupName) *ProjectGroup {
	for i := range bf.ProjectGroups {
		if bf.ProjectGroups[i].Name == name {
			return &bf.ProjectGroups[i]
		}
	}
	return nil
}

// HasGroups reports whether the document declares any project groups.
func (bf *BuildFile) HasGroups() bool {
	return len(bf.ProjectGroups) > 0
}

// Names returns the group names in declaration order.
func (gl GroupList) Names() []GroupName {
	names := make([]GroupName, len(gl))
	for i, g := range gl {
		names[i] = g.Name
	}
	return names
}

// UnmarshalJSON decodes a projectGroups object while preserving the order in
// which groups are declared in the document.
func (gl *GroupList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		// JSON null.
		*gl = nil
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("projectGroups: expected object, got %v", tok)
	}

	var out GroupList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("projectGroups: expected string key, got %v", keyTok)
		}

		var group ProjectGroup
		if err := dec.Decode(&group); err != nil {
			return fmt.Errorf("projectGroups: group %q: %w", name, err)
		}
		group.Name = GroupName(name)
		out = append(out, group)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}

	*gl = out
	return nil
}

// MarshalJSON encodes the groups back into a JSON object in declaration order.
func (gl GroupList) MarshalJSON() ([]byte, error) {
	if gl == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range gl {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(string(gl[i].Name))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		// Name carries json:"-", so marshaling the struct emits only the body.
		body, err := json.Marshal(gl[i])
		if err != nil {
			return nil, fmt.Errorf("projectGroups: group %q: %w", gl[i].Name, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
