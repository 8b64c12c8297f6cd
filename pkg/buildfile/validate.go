// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrValidatorNotConfigured is returned when ValidateSemantics is called
// without a repo root or project lister.
var ErrValidatorNotConfigured = errors.New("validator not configured")

type (
	// ProjectLister supplies raw project discovery to the validator: every
	// project-definition file under a directory, unfiltered, sorted by full
	// path. A missing directory yields an empty list and no error.
	//
	// internal/discovery provides the production implementation.
	ProjectLister interface {
		ListProjects(ctx context.Context, baseDir string) ([]string, error)
	}

	// ValidateOptions configures a semantic validation pass.
	ValidateOptions struct {
		// RepoRoot anchors relative sourceDir values.
		RepoRoot string
		// Lister provides project discovery.
		Lister ProjectLister
	}
)

// ValidateSemantics cross-checks the document's group definitions against the
// filesystem and each other.
//
// The validator is stateless and total: every check always runs, nothing
// short-circuits, and all findings come back as ordered data. Callers decide
// pass/fail from the presence of Error-severity findings. The error return
// covers only operational failures: cancellation, or a project walk that
// failed for reasons other than a missing directory.
//
// Checks, per group in declaration order:
//   - the group's sourceDir exists on disk (Error)
//   - the group's action spelling is recognized (Info note; routing still
//     proceeds to the compile bucket)
//   - every include entry matches at least one project file under the
//     sourceDir (Error), and at most one (Warning on ambiguous fan-out)
//   - no include entry repeats within the group (Error)
//
// Cross-group checks, after all groups:
//   - a project name included by two or more groups (Error naming every
//     group involved)
//   - two or more groups mapping onto the same legacy role (Warning naming
//     the declaration-order winner)
func ValidateSemantics(ctx context.Context, bf *BuildFile, opts ValidateOptions) (ValidationIssues, error) {
	if opts.RepoRoot == "" || opts.Lister == nil {
		return nil, ErrValidatorNotConfigured
	}

	var issues ValidationIssues

	// Cross-group bookkeeping, keyed in first-appearance order.
	type inclusion struct {
		display string
		groups  []GroupName
	}
	includedBy := make(map[string]*inclusion)
	var includeOrder []string

	roleClaims := make(map[LegacyRole][]GroupName)

	for gi := range bf.ProjectGroups {
		group := &bf.ProjectGroups[gi]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.TrimSpace(group.SourceDir) == "" {
			issues = append(issues, ValidationIssue{
				Severity:   SeverityError,
				Code:       CodeMissingSourceDir,
				Message:    "group declares no sourceDir",
				Group:      group.Name,
				Suggestion: "set sourceDir to the directory containing this group's projects",
			})
			continue
		}

		baseDir := resolveAgainst(opts.RepoRoot, group.SourceDir)
		if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
			issues = append(issues, ValidationIssue{
				Severity:   SeverityError,
				Code:       CodeMissingSourceDir,
				Message:    fmt.Sprintf("sourceDir %q does not exist", group.SourceDir),
				Group:      group.Name,
				Path:       baseDir,
				Suggestion: "create the directory or fix the sourceDir path (relative paths resolve against the config file's root)",
			})
			// Include checks below would only repeat the same root cause.
			continue
		}

		if _, known := group.Action.Canonical(); !known {
			issues = append(issues, ValidationIssue{
				Severity:   SeverityInfo,
				Code:       CodeUnknownAction,
				Message:    fmt.Sprintf("unknown action %q; projects route to the compile bucket", group.Action),
				Group:      group.Name,
				Suggestion: "use one of: compile, pack, publish",
			})
		}

		if role, ok := LegacyRoleForGroup(group.Name); ok {
			roleClaims[role] = append(roleClaims[role], group.Name)
		}

		if len(group.Include) == 0 {
			continue
		}

		projects, err := opts.Lister.ListProjects(ctx, baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects under %s: %w", baseDir, err)
		}

		seen := make(map[string]bool, len(group.Include))
		for _, name := range group.Include {
			norm := strings.ToLower(strings.TrimSpace(name))
			if norm == "" {
				continue
			}

			if seen[norm] {
				issues = append(issues, ValidationIssue{
					Severity:   SeverityError,
					Code:       CodeDuplicateProject,
					Message:    fmt.Sprintf("project %q is listed more than once in include", name),
					Group:      group.Name,
					Suggestion: "remove the repeated entry",
				})
				continue
			}
			seen[norm] = true

			if entry, ok := includedBy[norm]; ok {
				entry.groups = append(entry.groups, group.Name)
			} else {
				includedBy[norm] = &inclusion{display: name, groups: []GroupName{group.Name}}
				includeOrder = append(includeOrder, norm)
			}

			matches := matchProjects(projects, norm)
			switch {
			case len(matches) == 0:
				issues = append(issues, ValidationIssue{
					Severity:   SeverityError,
					Code:       CodeMissingInclude,
					Message:    fmt.Sprintf("include %q matches no project file under %q", name, group.SourceDir),
					Group:      group.Name,
					Path:       baseDir,
					Suggestion: "check the spelling; include entries are project file names without extension",
				})
			case len(matches) > 1:
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Code:     CodeAmbiguousInclude,
					Message: fmt.Sprintf("include %q matches %d project files: %s",
						name, len(matches), strings.Join(matches, ", ")),
					Group:      group.Name,
					Suggestion: "rename one of the project files or split the group so names are unique",
				})
			}
		}
	}

	for _, norm := range includeOrder {
		entry := includedBy[norm]
		if len(entry.groups) < 2 {
			continue
		}
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Code:     CodeDuplicateProject,
			Message: fmt.Sprintf("project %q is included by %d groups: %s",
				entry.display, len(entry.groups), joinGroupNames(entry.groups)),
			Suggestion: "keep the project in exactly one group's include list",
		})
	}

	for _, role := range []LegacyRole{RoleExecutables, RoleLibraries, RoleContracts} {
		claims := roleClaims[role]
		if len(claims) < 2 {
			continue
		}
		winner := claims[len(claims)-1]
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Code:     CodeDuplicateLegacyRole,
			Message: fmt.Sprintf("groups %s all map to the legacy %s role; %q (declared last) wins",
				joinGroupNames(claims), role, winner),
			Group:      winner,
			Suggestion: "rename the other groups so only one carries the role",
		})
	}

	return issues, nil
}

// matchProjects returns the project paths whose base name (without extension)
// equals the normalized include name.
func matchProjects(projects []string, norm string) []string {
	var matches []string
	for _, p := range projects {
		base := filepath.Base(p)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if strings.ToLower(base) == norm {
			matches = append(matches, p)
		}
	}
	return matches
}

// resolveAgainst anchors a possibly-relative path at root.
func resolveAgainst(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// joinGroupNames renders group names as a quoted, comma-separated list.
func joinGroupNames(names []GroupName) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", string(n))
	}
	return strings.Join(quoted, ", ")
}
