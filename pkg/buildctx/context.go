// SPDX-License-Identifier: MPL-2.0

package buildctx

import "strings"

// DefaultConfiguration is the build configuration applied when a toolchain
// section does not declare one.
const DefaultConfiguration = "Release"

// VcpkgRootVar names the environment variable probed for the native
// toolchain root. Read through the injected environment provider only.
const VcpkgRootVar = "VCPKG_ROOT"

// Default artifact glob sets per toolchain. Synthesized sub-contexts receive
// copies, never the shared backing arrays.
var (
	nativeArtifactGlobs = []string{"**/*.so", "**/*.dylib", "**/*.dll"}
	rustArtifactGlobs   = []string{"**/*.so", "**/*.dylib", "**/*.dll", "**/*.rlib"}
	goArtifactGlobs     = []string{"**/*.so", "**/*.dylib", "**/*.dll", "**/*.h"}
)

type (
	// BuildContext is the resolved, executor-facing form of a build document.
	// It is created fresh by every resolve, carries no identity across loads,
	// and is consumed read-only.
	BuildContext struct {
		// RepoRoot is the absolute directory every relative document path was
		// resolved against.
		RepoRoot string `json:"repoRoot"`
		// ConfigPath is the file the document was loaded from. Empty when the
		// document was parsed from bytes.
		ConfigPath string `json:"configPath,omitempty"`
		// Version is the effective build version. Never empty: the precedence
		// chain ends in a fixed fallback.
		Version string `json:"version"`
		// Solution is the absolute path to the solution file, when declared.
		Solution string `json:"solution,omitempty"`

		// Project file paths per action bucket: absolute, sorted by full
		// path, duplicates collapsed. A group's discovered projects land in
		// exactly one bucket.
		CompileProjects []string `json:"compileProjects,omitempty"`
		PublishProjects []string `json:"publishProjects,omitempty"`
		PackProjects    []string `json:"packProjects,omitempty"`

		// Optional toolchain sub-contexts. Nil means the toolchain does not
		// participate in this build.
		Native *NativeContext `json:"native,omitempty"`
		Rust   *RustContext   `json:"rust,omitempty"`
		Go     *GoContext     `json:"go,omitempty"`
		Unity  *UnityContext  `json:"unity,omitempty"`

		// NuGetOutputDir receives packed .nupkg files. Absolute when set.
		NuGetOutputDir string `json:"nuGetOutputDir,omitempty"`
		// ArtifactsDir receives published output. Absolute when set.
		ArtifactsDir string `json:"artifactsDir,omitempty"`
		// IncludeSymbols packs .snupkg symbol packages alongside .nupkg.
		IncludeSymbols bool `json:"includeSymbols,omitempty"`
		// PackProperties are extra MSBuild properties for pack steps. The map
		// is owned by the context; the document's copy is never aliased.
		PackProperties map[string]string `json:"packProperties,omitempty"`
		// LocalFeed mirrors packed packages into a local feed, when declared.
		LocalFeed *LocalFeed `json:"localFeed,omitempty"`

		// Legacy mirrors role-mapped groups for executors that still consume
		// the pre-group configuration shape.
		Legacy Legacy `json:"legacy"`
	}

	// NativeContext configures the CMake-driven native build step.
	NativeContext struct {
		// SourceDir holds the CMakeLists.txt. Absolute.
		SourceDir string `json:"sourceDir"`
		// BuildDir is the out-of-tree build directory. Absolute.
		BuildDir string `json:"buildDir"`
		// Configuration is the build configuration, Release by default.
		Configuration string `json:"configuration"`
		// Generator is the CMake generator, when declared. Empty lets CMake
		// pick its platform default.
		Generator string `json:"generator,omitempty"`
		// ExtraArgv are additional CMake arguments, shell-split from the
		// document's extraArgs string.
		ExtraArgv []string `json:"extraArgv,omitempty"`
		// ToolchainRoot is the vcpkg installation root, when the environment
		// declares one.
		ToolchainRoot string `json:"toolchainRoot,omitempty"`
		// ArtifactGlobs select the build outputs to collect.
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// RustContext configures the cargo-driven Rust build step.
	RustContext struct {
		// ManifestPath is the Cargo.toml driving the build. Absolute. The
		// file may not exist yet; resolution tolerates its absence.
		ManifestPath string `json:"manifestPath"`
		// PackageName is the [package] name from the manifest, when present.
		PackageName string `json:"packageName,omitempty"`
		// WorkspaceMembers lists [workspace] members from the manifest.
		WorkspaceMembers []string `json:"workspaceMembers,omitempty"`
		// Configuration is the build configuration, Release by default.
		Configuration string `json:"configuration"`
		// ExtraArgv are additional cargo arguments, shell-split from the
		// document's extraArgs string.
		ExtraArgv []string `json:"extraArgv,omitempty"`
		// ArtifactGlobs select the build outputs to collect.
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// GoContext configures the Go build step.
	GoContext struct {
		// ModuleDir holds the go.mod. Absolute.
		ModuleDir string `json:"moduleDir"`
		// ModulePath is the module declaration from go.mod, when present.
		ModulePath string `json:"modulePath,omitempty"`
		// ExtraArgv are additional go build arguments, shell-split from the
		// document's extraArgs string.
		ExtraArgv []string `json:"extraArgv,omitempty"`
		// ArtifactGlobs select the build outputs to collect.
		ArtifactGlobs []string `json:"artifactGlobs,omitempty"`
	}

	// UnityContext configures the Unity batch-mode build step.
	UnityContext struct {
		// ProjectDir is the Unity project root. Absolute.
		ProjectDir string `json:"projectDir"`
		// EditorVersion is m_EditorVersion from ProjectSettings, when the
		// project declares one.
		EditorVersion string `json:"editorVersion,omitempty"`
		// BuildTarget is the Unity build target, when declared.
		BuildTarget string `json:"buildTarget,omitempty"`
		// OutputDir receives the build output. Absolute when set.
		OutputDir string `json:"outputDir,omitempty"`
	}

	// LocalFeed is the resolved local NuGet feed configuration.
	LocalFeed struct {
		// Path is the feed directory. Absolute.
		Path string `json:"path"`
		// Clean empties the feed before mirroring.
		Clean bool `json:"clean,omitempty"`
	}

	// Legacy is the pre-group configuration shape, populated from groups
	// whose names map onto a legacy role. When several groups map onto the
	// same role, the one declared last wins.
	Legacy struct {
		HostsDir         string   `json:"hostsDir,omitempty"`
		PluginsDir       string   `json:"pluginsDir,omitempty"`
		ContractsDir     string   `json:"contractsDir,omitempty"`
		IncludeHosts     []string `json:"includeHosts,omitempty"`
		ExcludeHosts     []string `json:"excludeHosts,omitempty"`
		IncludePlugins   []string `json:"includePlugins,omitempty"`
		ExcludePlugins   []string `json:"excludePlugins,omitempty"`
		IncludeContracts []string `json:"includeContracts,omitempty"`
		ExcludeContracts []string `json:"excludeContracts,omitempty"`
	}
)

// ProfileArgs returns the cargo arguments selecting the build profile:
// Release maps to --release, Debug and Dev to cargo's default profile, and
// anything else to an explicit --profile selection.
func (c *RustContext) ProfileArgs() []string {
	switch {
	case strings.EqualFold(c.Configuration, "release"):
		return []string{"--release"}
	case strings.EqualFold(c.Configuration, "debug"), strings.EqualFold(c.Configuration, "dev"):
		return nil
	case c.Configuration == "":
		return nil
	default:
		return []string{"--profile", c.Configuration}
	}
}
