// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of base directories whose raw walk results
// a Finder memoizes.
const DefaultCacheSize = 64

// projectExtensions are the file extensions that mark a project definition,
// compared case-insensitively.
var projectExtensions = map[string]struct{}{
	".csproj": {},
	".fsproj": {},
	".vbproj": {},
}

// skipDirNames are directory names excluded at every level of the walk so
// generated copies of project files are never double-counted. Matched
// case-insensitively; keys are lowercase.
var skipDirNames = map[string]struct{}{
	"bin":          {},
	"obj":          {},
	".git":         {},
	".vs":          {},
	".idea":        {},
	"node_modules": {},
	"packages":     {},
	"testresults":  {},
}

type (
	// Finder locates project definition files beneath base directories with
	// include/exclude filtering. Raw walk results are memoized per base
	// directory so repeated scans of the same tree within one invocation
	// reuse a single walk.
	Finder struct {
		cache *lru.Cache[string, walkResult]
	}

	// walkResult is an immutable cached walk outcome. paths is sorted by
	// full path; callers always receive copies, never the cached slices.
	walkResult struct {
		paths []string
		diags []Diagnostic
	}

	// Option configures a Finder.
	Option func(*Finder)
)

// WithCacheSize sets the number of base directories whose walk results are
// memoized. A non-positive size disables memoization entirely.
func WithCacheSize(size int) Option {
	return func(f *Finder) {
		f.cache = nil
		if size > 0 {
			if cache, err := lru.New[string, walkResult](size); err == nil {
				f.cache = cache
			}
		}
	}
}

// New creates a Finder with walk memoization enabled at DefaultCacheSize.
func New(opts ...Option) *Finder {
	f := &Finder{}
	WithCacheSize(DefaultCacheSize)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindProjects returns the project definition files under baseDir after
// include/exclude filtering, sorted by full path. A missing baseDir yields
// an empty result and a nil error.
func (f *Finder) FindProjects(ctx context.Context, baseDir string, include, exclude []string) ([]string, error) {
	paths, _, err := f.FindProjectsWithDiagnostics(ctx, baseDir, include, exclude)
	return paths, err
}

// FindProjectsWithDiagnostics is FindProjects plus non-fatal warnings about
// entries skipped mid-walk, so callers can surface observability without
// failing the scan.
func (f *Finder) FindProjectsWithDiagnostics(ctx context.Context, baseDir string, include, exclude []string) ([]string, []Diagnostic, error) {
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		diag := NewDiagnosticWithCause(SeverityWarning, CodeScanPathInvalid,
			fmt.Sprintf("failed to resolve project scan path %q: %v", baseDir, err), baseDir, err)
		return nil, []Diagnostic{diag}, nil
	}

	res, err := f.walk(ctx, absDir)
	if err != nil {
		return nil, nil, err
	}
	return filterProjects(res.paths, include, exclude), slices.Clone(res.diags), nil
}

// ListProjects returns every project definition file under baseDir, sorted
// by full path. It is the unfiltered form of FindProjects.
func (f *Finder) ListProjects(ctx context.Context, baseDir string) ([]string, error) {
	return f.FindProjects(ctx, baseDir, nil, nil)
}

// walk enumerates project files under absDir, consulting the memoization
// cache first. Cancelled walks are never cached.
func (f *Finder) walk(ctx context.Context, absDir string) (walkResult, error) {
	if f.cache != nil {
		if res, ok := f.cache.Get(absDir); ok {
			return res, nil
		}
	}

	// A missing source directory is not an error: the group is skipped and
	// the semantic validator reports it separately.
	if _, err := os.Stat(absDir); os.IsNotExist(err) {
		return walkResult{}, nil
	}

	var res walkResult
	err := filepath.WalkDir(absDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			res.diags = append(res.diags, NewDiagnosticWithCause(SeverityWarning, CodeWalkEntrySkipped,
				fmt.Sprintf("skipping unreadable entry during project scan: %v", walkErr), path, walkErr))
			return nil
		}

		if entry.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != absDir && isSkippedDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if IsProjectFile(entry.Name()) {
			res.paths = append(res.paths, path)
		}
		return nil
	})
	if err != nil {
		return walkResult{}, err
	}

	slices.Sort(res.paths)
	if f.cache != nil {
		f.cache.Add(absDir, res)
	}
	return res, nil
}

// filterProjects applies include/exclude filtering to a sorted path list.
// A non-empty include wins: only listed names are kept and exclude is
// ignored entirely. Names are project base names without extension,
// compared case-insensitively.
func filterProjects(paths, include, exclude []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		name := ProjectName(path)
		switch {
		case len(include) > 0:
			if containsName(include, name) {
				out = append(out, path)
			}
		case containsName(exclude, name):
			// excluded
		default:
			out = append(out, path)
		}
	}
	return out
}

// IsProjectFile reports whether the file name carries a recognized project
// definition extension.
func IsProjectFile(name string) bool {
	_, ok := projectExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ProjectName extracts the project base name from a path: the file name
// with its extension removed. e.g., "/repo/src/Foo/Foo.csproj" -> "Foo".
func ProjectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isSkippedDir(name string) bool {
	_, ok := skipDirNames[strings.ToLower(name)]
	return ok
}

func containsName(names []string, target string) bool {
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), target) {
			return true
		}
	}
	return false
}
