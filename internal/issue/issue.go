// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Code identifies a documented issue. The same codes appear on validation
// findings and error output, so `anvil explain <code>` can expand any of them.
type Code string

const (
	ConfigNotFoundCode      Code = "config-not-found"
	ConfigParseErrorCode    Code = "config-parse-error"
	SchemaViolationCode     Code = "schema-violation"
	LegacySchemaCode        Code = "legacy-schema"
	MigrationFailedCode     Code = "migration-failed"
	BackupExistsCode        Code = "backup-exists"
	MissingSourceDirCode    Code = "missing-source-dir"
	MissingIncludeCode      Code = "missing-include-project"
	DuplicateProjectCode    Code = "duplicate-project"
	UnknownActionCode       Code = "unknown-action"
	DuplicateLegacyRoleCode Code = "duplicate-legacy-role"
	AmbiguousIncludeCode    Code = "ambiguous-include"
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	code     Code        // code used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Code() Code {
	return i.code
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		code: ConfigNotFoundCode,
		mdMsg: `
# No anvil.json found!

We searched for a build config but couldn't find one in the expected locations.

## Search locations (per directory, in order of precedence):
1. anvil.json
2. build/anvil.json

The search repeats in every parent directory up to the filesystem root.

## Things you can try:
- Create a starter config in your repository root:
~~~
$ anvil init
~~~

- Or run anvil from inside the repository:
~~~
$ cd /path/to/your/repo
$ anvil resolve
~~~

## Example anvil.json structure:
~~~json
{
  "versionEnv": "Version",
  "solution": "MyProduct.sln",
  "projectGroups": {
    "services": { "sourceDir": "src/services", "action": "publish" },
    "libraries": { "sourceDir": "src/libs", "action": "pack" }
  }
}
~~~`,
	}

	configParseErrorIssue = &Issue{
		code: ConfigParseErrorCode,
		mdMsg: `
# Failed to parse anvil.json!

Your build config contains malformed JSON.

## Common issues:
- Trailing commas (JSON forbids them)
- Missing quotes around keys or values
- Unbalanced braces or brackets
- Comments (JSON has none)

## Things you can try:
- Check the error message above for the specific line/column
- Run the structural check for a field-by-field report:
~~~
$ anvil validate
~~~

- Run with verbose mode for the full error chain:
~~~
$ anvil --verbose resolve
~~~`,
	}

	schemaViolationIssue = &Issue{
		code: SchemaViolationCode,
		mdMsg: `
# Build config violates the schema!

The file is valid JSON but a field has the wrong shape or an unknown name.

## Common issues:
- "projectGroups" written as an array instead of an object
- "include"/"exclude" given as a string instead of a list
- "includeSymbols" given as a string instead of a boolean
- Misspelled field names (unknown fields are rejected)

## Things you can try:
- Read the per-field findings printed above; each names the offending path
- Compare against a freshly generated config:
~~~
$ anvil init --dir /tmp/scratch
~~~`,
	}

	legacySchemaIssue = &Issue{
		code: LegacySchemaCode,
		mdMsg: `
# Legacy build config detected!

This anvil.json uses the old flat layout (hostsDir/pluginsDir/contractsDir)
instead of projectGroups. Anvil still understands it, but new features only
target the current schema.

## Things you can try:
- Migrate in place (the original is kept as anvil.json.bak):
~~~
$ anvil migrate
~~~

- Preview the rewrite without touching disk:
~~~
$ anvil migrate --dry-run
~~~

## What migration does:
- hostsDir becomes the "executables" group with action "publish"
- pluginsDir becomes the "libraries" group with action "pack"
- contractsDir becomes the "contracts" group with action "pack"
- Every other setting is carried over unchanged`,
	}

	migrationFailedIssue = &Issue{
		code: MigrationFailedCode,
		mdMsg: `
# Migration failed!

Rewriting the build config to the current schema did not complete. The original
file is untouched: anvil stages the new content to a temporary file and only
replaces the original after the backup is verified.

## Common causes:
- The config directory is not writable
- The disk is full
- A concurrent process holds the file open (Windows)

## Things you can try:
- Check permissions on the directory containing anvil.json
- Remove a stale temporary file (anvil.json.tmp*) if one was left behind
- Re-run with verbose mode to see which step failed:
~~~
$ anvil --verbose migrate
~~~`,
	}

	backupExistsIssue = &Issue{
		code: BackupExistsCode,
		mdMsg: `
# Backup file already exists!

Migration writes the original config to anvil.json.bak before rewriting it, and
refuses to overwrite an existing backup: that file may be the only copy of a
previous schema.

## Things you can try:
- Inspect the existing backup, then move it out of the way:
~~~
$ mv anvil.json.bak anvil.json.bak.1
$ anvil migrate
~~~

- If the backup is stale and unwanted, delete it and re-run`,
	}

	missingSourceDirIssue = &Issue{
		code: MissingSourceDirCode,
		mdMsg: `
# Project group directory does not exist!

A projectGroups entry names a sourceDir that is missing on disk. Discovery
treats a missing directory as an empty project list, so the group would
silently contribute nothing to the build.

## Things you can try:
- Fix the sourceDir path in anvil.json (paths are relative to the config file)
- Create the directory if the group is ahead of the code
- Remove the group if it is obsolete`,
	}

	missingIncludeIssue = &Issue{
		code: MissingIncludeCode,
		mdMsg: `
# Included project not found!

A group's include list names a project that discovery cannot find under the
group's sourceDir. Include names are matched case-insensitively against the
project file name without its extension.

## Things you can try:
- Check the spelling of the include entry
- Verify the project file lives under the group's sourceDir
- Drop the extension: write "MyService", not "MyService.csproj"`,
	}

	duplicateProjectIssue = &Issue{
		code: DuplicateProjectCode,
		mdMsg: `
# Duplicate project reference!

The same project name is listed twice in one group's include list, or included
by more than one group. Each finding names every group involved.

## Why this is an error:
Routing a project through two groups makes the build outcome depend on group
iteration order, so anvil rejects it instead of guessing.

## Things you can try:
- Keep the project in exactly one group's include list
- If two groups legitimately cover one directory, narrow them with exclude`,
	}

	unknownActionIssue = &Issue{
		code: UnknownActionCode,
		mdMsg: `
# Unknown group action!

A projectGroups entry uses an action other than compile, pack, or publish.
Anvil routes such groups to compile so a typo never drops projects from the
build, and reports this note so the typo is still visible.

## Valid actions:
- **compile**: build only
- **pack**: build and produce a NuGet package
- **publish**: build and produce a deployable output

## Things you can try:
- Fix the action spelling in anvil.json`,
	}

	duplicateLegacyRoleIssue = &Issue{
		code: DuplicateLegacyRoleCode,
		mdMsg: `
# Two groups map to the same legacy role!

Consumers of the legacy context fields (HostsDir, PluginsDir, ContractsDir) see
exactly one directory per role. When two group names map to the same role (for
example both "hosts" and "executables"), the group declared last wins.

## Things you can try:
- Rename one of the groups so only one carries the legacy role
- If no tooling reads the legacy fields anymore, ignore this warning`,
	}

	ambiguousIncludeIssue = &Issue{
		code: AmbiguousIncludeCode,
		mdMsg: `
# Include name matches several projects!

An include entry matches more than one project file under the group's
sourceDir (same file name in different subdirectories). All matches are kept,
which is usually not what the author meant.

## Things you can try:
- Rename one of the project files so names are unique within the group
- Split the directory into two groups with distinct sourceDirs`,
	}

	issues = map[Code]*Issue{
		configNotFoundIssue.Code():      configNotFoundIssue,
		configParseErrorIssue.Code():    configParseErrorIssue,
		schemaViolationIssue.Code():     schemaViolationIssue,
		legacySchemaIssue.Code():        legacySchemaIssue,
		migrationFailedIssue.Code():     migrationFailedIssue,
		backupExistsIssue.Code():        backupExistsIssue,
		missingSourceDirIssue.Code():    missingSourceDirIssue,
		missingIncludeIssue.Code():      missingIncludeIssue,
		duplicateProjectIssue.Code():    duplicateProjectIssue,
		unknownActionIssue.Code():       unknownActionIssue,
		duplicateLegacyRoleIssue.Code(): duplicateLegacyRoleIssue,
		ambiguousIncludeIssue.Code():    ambiguousIncludeIssue,
	}
)

// Values returns every documented issue, sorted by code so listings are stable.
func Values() []*Issue {
	vals := maps.Values(issues)
	slices.SortFunc(vals, func(a, b *Issue) int {
		switch {
		case a.code < b.code:
			return -1
		case a.code > b.code:
			return 1
		default:
			return 0
		}
	})
	return vals
}

func Get(code Code) *Issue {
	return issues[code]
}
