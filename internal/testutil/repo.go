// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// projectStub is the minimal project definition body written by the
// repo-builder helpers. Discovery only looks at file names, so the body
// just needs to be recognizably XML-shaped.
const projectStub = "<Project Sdk=\"Microsoft.NET.Sdk\">\n</Project>\n"

// WriteProject creates a project definition file <name>.csproj under
// root/relDir and returns its full path. Parent directories are created
// as needed. The test fails immediately on any filesystem error.
func WriteProject(t testing.TB, root, relDir, name string) string {
	t.Helper()
	return WriteProjectFile(t, root, relDir, name+".csproj")
}

// WriteProjectFile creates a project definition file with an explicit file
// name (any extension) under root/relDir and returns its full path.
func WriteProjectFile(t testing.TB, root, relDir, fileName string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(relDir))
	MustMkdirAll(t, dir, 0o755)
	path := filepath.Join(dir, fileName)
	MustWriteFile(t, path, []byte(projectStub), 0o644)
	return path
}

// WriteFile writes content to root/relPath (slash-separated), creating
// parent directories, and returns the full path. Used for toolchain marker
// fixtures such as CMakeLists.txt or Cargo.toml.
func WriteFile(t testing.TB, root, relPath, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	MustWriteFile(t, path, []byte(content), 0o644)
	return path
}

// WriteBuildConfig writes content as the build configuration file
// (anvil.json) directly under dir and returns its full path.
func WriteBuildConfig(t testing.TB, dir, content string) string {
	t.Helper()
	MustMkdirAll(t, dir, 0o755)
	path := filepath.Join(dir, "anvil.json")
	MustWriteFile(t, path, []byte(content), 0o644)
	return path
}

// MustAbs converts path to an absolute path.
// The test fails immediately if resolution fails.
func MustAbs(t testing.TB, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("failed to resolve absolute path for %s: %v", path, err)
	}
	return abs
}

// MustStat stats path and returns the result.
// The test fails immediately if the stat fails.
func MustStat(t testing.TB, path string) os.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return info
}
