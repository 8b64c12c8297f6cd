// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the canonical name of the build config file.
const ConfigFileName = "anvil.json"

// candidatesFor returns the relative paths checked in each directory during
// the walk toward the filesystem root, in order of precedence.
func candidatesFor(fileName string) []string {
	return []string{
		fileName,
		filepath.Join("build", fileName),
	}
}

// ErrConfigNotFound is the sentinel error wrapped by NotFoundError.
var ErrConfigNotFound = errors.New("build config not found")

// NotFoundError is returned when no config file exists at any candidate path
// between the start directory and the filesystem root. It carries every path
// that was attempted, in the order they were checked.
type NotFoundError struct {
	// Name is the file name that was searched for.
	Name string
	// Start is the directory the search began in.
	Start string
	// Attempted lists every absolute path checked, in order.
	Attempted []string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	name := e.Name
	if name == "" {
		name = ConfigFileName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "no %s found searching upward from %s; attempted:", name, e.Start)
	for _, p := range e.Attempted {
		b.WriteString("\n  ")
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error {
	return ErrConfigNotFound
}

// Locate finds the build config file governing startDir.
//
// Each directory is checked for the candidate paths (anvil.json, then
// build/anvil.json); on a miss the search moves to the parent directory and
// repeats, stopping at the filesystem root. The first regular file found
// wins. When nothing is found the returned NotFoundError names every path
// attempted.
func Locate(startDir string) (string, error) {
	path, _, err := LocateWithRoot(startDir)
	return path, err
}

// LocateWithRoot finds the build config file governing startDir and also
// reports the directory the winning candidate was anchored to. That
// directory is the repository root: for ROOT/build/anvil.json it is ROOT,
// not ROOT/build.
func LocateWithRoot(startDir string) (configPath, repoRoot string, err error) {
	return LocateNamed(startDir, ConfigFileName)
}

// LocateNamed is LocateWithRoot for repositories whose build config cannot
// carry the canonical name. An empty fileName falls back to ConfigFileName.
func LocateNamed(startDir, fileName string) (configPath, repoRoot string, err error) {
	if strings.TrimSpace(fileName) == "" {
		fileName = ConfigFileName
	}

	start, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve start directory %s: %w", startDir, err)
	}

	var attempted []string
	dir := start
	for {
		for _, candidate := range candidatesFor(fileName) {
			path := filepath.Join(dir, candidate)
			attempted = append(attempted, path)

			info, statErr := os.Stat(path)
			if statErr == nil && info.Mode().IsRegular() {
				return path, dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root.
			break
		}
		dir = parent
	}

	return "", "", &NotFoundError{Name: fileName, Start: start, Attempted: attempted}
}

// Load locates, reads, and parses the build config governing startDir.
// It is the common entry point for callers that just want the typed document
// plus the path it came from.
func Load(startDir string) (*BuildFile, error) {
	path, err := Locate(startDir)
	if err != nil {
		return nil, err
	}
	return Parse(path)
}
