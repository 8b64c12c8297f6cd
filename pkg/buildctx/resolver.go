// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anvil-build/anvil/pkg/buildfile"
)

// maxConcurrentGroups bounds parallel per-group discovery.
const maxConcurrentGroups = 4

var (
	// ErrResolverNotConfigured is returned when a Resolver is used without a
	// project finder.
	ErrResolverNotConfigured = errors.New("resolver not configured")
	// ErrNilDocument is returned when Resolve is handed a nil document.
	ErrNilDocument = errors.New("nil build document")
)

type (
	// ProjectFinder locates project definition files under a directory.
	// include and exclude carry project base names without extension;
	// a missing baseDir yields an empty result, not an error.
	ProjectFinder interface {
		FindProjects(ctx context.Context, baseDir string, include, exclude []string) ([]string, error)
	}

	// Resolver turns parsed build documents into BuildContexts. The zero
	// value is not usable: a ProjectFinder must be injected via WithFinder.
	Resolver struct {
		finder   ProjectFinder
		env      buildfile.EnvProvider
		explicit string
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithFinder injects the project discovery capability. Required.
func WithFinder(finder ProjectFinder) Option {
	return func(r *Resolver) { r.finder = finder }
}

// WithEnv injects the environment capability consulted for version
// resolution and toolchain hints. A nil provider means no environment.
func WithEnv(env buildfile.EnvProvider) Option {
	return func(r *Resolver) { r.env = env }
}

// WithExplicitVersion supplies a caller-provided version, typically from a
// command-line flag. It participates in the version precedence chain below
// the document's version field and environment variable.
func WithExplicitVersion(version string) Option {
	return func(r *Resolver) { r.explicit = version }
}

// New builds a Resolver from the given options.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the BuildContext for the document, anchoring every relative
// path at repoRoot. Soft resolution notes are discarded; use
// ResolveWithNotes to observe them.
func (r *Resolver) Resolve(ctx context.Context, bf *buildfile.BuildFile, repoRoot string) (*BuildContext, error) {
	bc, _, err := r.ResolveWithNotes(ctx, bf, repoRoot)
	return bc, err
}

// ResolveWithNotes builds the BuildContext for the document and also returns
// the soft notes produced along the way, such as an unrecognized group
// action spelling routed to the compile bucket.
//
// Per-group discovery runs in parallel, bounded by maxConcurrentGroups, on a
// group derived from ctx. Resolution is all-or-nothing: the first discovery
// failure or cancellation aborts the whole resolve and no partial context is
// returned. Project lists are sorted by full path after all parallel work
// completes, so output order never depends on completion order.
func (r *Resolver) ResolveWithNotes(ctx context.Context, bf *buildfile.BuildFile, repoRoot string) (*BuildContext, buildfile.ValidationIssues, error) {
	if r.finder == nil {
		return nil, nil, fmt.Errorf("%w: no project finder", ErrResolverNotConfigured)
	}
	if bf == nil {
		return nil, nil, ErrNilDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve repo root %s: %w", repoRoot, err)
	}

	bc := &BuildContext{
		RepoRoot:       root,
		ConfigPath:     bf.FilePath,
		Version:        buildfile.ResolveVersion(bf, r.explicit, r.env),
		Solution:       resolveAgainst(root, bf.Solution),
		NuGetOutputDir: resolveAgainst(root, bf.NuGetOutputDir),
		ArtifactsDir:   resolveAgainst(root, bf.ArtifactsDir),
		IncludeSymbols: bf.IncludeSymbols,
	}
	if len(bf.PackProperties) > 0 {
		bc.PackProperties = maps.Clone(bf.PackProperties)
	}
	if bf.LocalFeed != nil {
		bc.LocalFeed = &LocalFeed{
			Path:  resolveAgainst(root, bf.LocalFeed.Path),
			Clean: bf.LocalFeed.Clean,
		}
	}

	// Canonicalize every group's action before scheduling discovery, so the
	// bucket assignment and its notes never depend on walk order.
	type groupWork struct {
		group    *buildfile.ProjectGroup
		action   buildfile.GroupAction
		projects []string
	}
	var notes buildfile.ValidationIssues
	work := make([]*groupWork, 0, len(bf.ProjectGroups))
	for gi := range bf.ProjectGroups {
		group := &bf.ProjectGroups[gi]
		action, known := group.Action.Canonical()
		if !known {
			notes = append(notes, buildfile.ValidationIssue{
				Severity:   buildfile.SeverityInfo,
				Code:       buildfile.CodeUnknownAction,
				Message:    fmt.Sprintf("unknown action %q treated as %q", group.Action, buildfile.ActionCompile),
				Group:      group.Name,
				Suggestion: "use one of compile, pack, publish",
			})
		}
		work = append(work, &groupWork{group: group, action: action})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentGroups)
	for _, w := range work {
		if strings.TrimSpace(w.group.SourceDir) == "" {
			// A blank sourceDir is a validation finding; resolution must not
			// fall back to walking the process working directory.
			continue
		}
		eg.Go(func() error {
			projects, findErr := r.finder.FindProjects(egCtx, resolveAgainst(root, w.group.SourceDir), w.group.Include, w.group.Exclude)
			if findErr != nil {
				return fmt.Errorf("group %s: %w", w.group.Name, findErr)
			}
			w.projects = projects
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	// Flat project lists declared directly on the document join the buckets
	// alongside group-discovered projects.
	bc.CompileProjects = resolvePaths(root, bf.CompileProjects)
	bc.PublishProjects = resolvePaths(root, bf.PublishProjects)
	bc.PackProjects = resolvePaths(root, bf.PackProjects)

	for _, w := range work {
		switch w.action {
		case buildfile.ActionPublish:
			bc.PublishProjects = append(bc.PublishProjects, w.projects...)
		case buildfile.ActionPack:
			bc.PackProjects = append(bc.PackProjects, w.projects...)
		default:
			bc.CompileProjects = append(bc.CompileProjects, w.projects...)
		}
		if role, ok := buildfile.LegacyRoleForGroup(w.group.Name); ok {
			bc.Legacy.apply(role, w.group, root)
		}
	}

	sortProjects(&bc.CompileProjects)
	sortProjects(&bc.PublishProjects)
	sortProjects(&bc.PackProjects)

	if bc.Native, err = resolveNative(bf.NativeBuild, root, r.env); err != nil {
		return nil, nil, err
	}
	if bc.Rust, err = resolveRust(bf.RustBuild, root, r.env); err != nil {
		return nil, nil, err
	}
	if bc.Go, err = resolveGo(bf.GoBuild, root, r.env); err != nil {
		return nil, nil, err
	}
	if bc.Unity, err = resolveUnity(bf.UnityBuild, root); err != nil {
		return nil, nil, err
	}

	return bc, notes, nil
}

// apply mirrors one role-mapped group into the legacy shape. Callers invoke
// it in declaration order, so the last group claiming a role wins.
func (l *Legacy) apply(role buildfile.LegacyRole, group *buildfile.ProjectGroup, root string) {
	dir := resolveAgainst(root, group.SourceDir)
	include := slices.Clone(group.Include)
	exclude := slices.Clone(group.Exclude)

	switch role {
	case buildfile.RoleExecutables:
		l.HostsDir, l.IncludeHosts, l.ExcludeHosts = dir, include, exclude
	case buildfile.RoleLibraries:
		l.PluginsDir, l.IncludePlugins, l.ExcludePlugins = dir, include, exclude
	case buildfile.RoleContracts:
		l.ContractsDir, l.IncludeContracts, l.ExcludeContracts = dir, include, exclude
	}
}

// sortProjects sorts a bucket by full path and collapses duplicates, so the
// same project declared flat and discovered via a group appears once.
func sortProjects(projects *[]string) {
	slices.Sort(*projects)
	*projects = slices.Compact(*projects)
}

// resolvePaths resolves each non-blank entry against root.
func resolvePaths(root string, paths []string) []string {
	var resolved []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		resolved = append(resolved, resolveAgainst(root, p))
	}
	return resolved
}

// resolveAgainst anchors a relative path at root. Absolute paths and the
// empty string pass through unchanged.
func resolveAgainst(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// fileExists reports whether path names a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
