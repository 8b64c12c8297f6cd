// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RoleExecutables maps a group onto the legacy hostsDir fields.
	RoleExecutables LegacyRole = "executables"
	// RoleLibraries maps a group onto the legacy pluginsDir fields.
	RoleLibraries LegacyRole = "libraries"
	// RoleContracts maps a group onto the legacy contractsDir fields.
	RoleContracts LegacyRole = "contracts"
)

// ErrInvalidLegacyRole is returned when a LegacyRole value is not one of the defined roles.
var ErrInvalidLegacyRole = errors.New("invalid legacy role")

// legacyRoleNames is the declared lookup table mapping well-known group names
// onto legacy roles. Matching is case-insensitive on the lower-cased key.
// This table is the single source of truth for legacy-role routing: changing
// which names carry a role means changing exactly this table.
var legacyRoleNames = map[string]LegacyRole{
	"executables": RoleExecutables,
	"hosts":       RoleExecutables,
	"apps":        RoleExecutables,
	"services":    RoleExecutables,

	"libraries": RoleLibraries,
	"plugins":   RoleLibraries,
	"libs":      RoleLibraries,
	"modules":   RoleLibraries,

	"contracts":    RoleContracts,
	"packages":     RoleContracts,
	"abstractions": RoleContracts,
	"interfaces":   RoleContracts,
}

type (
	// LegacyRole identifies one of the single-purpose directory slots of the
	// legacy schema. Older collaborators expect exactly one directory per role.
	LegacyRole string

	// InvalidLegacyRoleError is returned when a LegacyRole value is not recognized.
	// It wraps ErrInvalidLegacyRole for errors.Is() compatibility.
	InvalidLegacyRoleError struct {
		Value LegacyRole
	}

	// LegacySettings is the typed view of a legacy document's directory
	// properties, as read tolerantly (camelCase or PascalCase) from the raw
	// tree. A zero-valued field means the property was absent.
	LegacySettings struct {
		HostsDir     string
		PluginsDir   string
		ContractsDir string

		IncludeHosts     []string
		ExcludeHosts     []string
		IncludePlugins   []string
		ExcludePlugins   []string
		IncludeContracts []string
		ExcludeContracts []string
	}
)

// String returns the string representation of the LegacyRole.
func (r LegacyRole) String() string { return string(r) }

// Validate returns nil if the LegacyRole is one of the defined roles,
// or a validation error if it is not.
func (r LegacyRole) Validate() error {
	switch r {
	case RoleExecutables, RoleLibraries, RoleContracts:
		return nil
	default:
		return &InvalidLegacyRoleError{Value: r}
	}
}

// GroupName returns the canonical group name synthesized for this role
// during migration.
func (r LegacyRole) GroupName() GroupName {
	return GroupName(r)
}

// Action returns the group action assigned to this role's synthesized group:
// executables publish, libraries and contracts pack.
func (r LegacyRole) Action() GroupAction {
	if r == RoleExecutables {
		return ActionPublish
	}
	return ActionPack
}

// Error implements the error interface for InvalidLegacyRoleError.
func (e *InvalidLegacyRoleError) Error() string {
	return fmt.Sprintf("invalid legacy role %q (valid: executables, libraries, contracts)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLegacyRoleError) Unwrap() error {
	return ErrInvalidLegacyRole
}

// LegacyRoleForGroup returns the legacy role a group name maps onto, if any.
// Matching is case-insensitive.
func LegacyRoleForGroup(name GroupName) (LegacyRole, bool) {
	role, ok := legacyRoleNames[strings.ToLower(string(name))]
	return role, ok
}

// ExtractLegacy reads the legacy directory properties out of a raw document.
// Keys are accepted in camelCase or PascalCase. Values of the wrong type are
// treated as absent; the detector has already decided the document is legacy,
// so extraction stays tolerant rather than failing the migration.
func ExtractLegacy(doc RawDocument) LegacySettings {
	return LegacySettings{
		HostsDir:     stringAt(doc, "hostsDir"),
		PluginsDir:   stringAt(doc, "pluginsDir"),
		ContractsDir: stringAt(doc, "contractsDir"),

		IncludeHosts:     stringsAt(doc, "includeHosts"),
		ExcludeHosts:     stringsAt(doc, "excludeHosts"),
		IncludePlugins:   stringsAt(doc, "includePlugins"),
		ExcludePlugins:   stringsAt(doc, "excludePlugins"),
		IncludeContracts: stringsAt(doc, "includeContracts"),
		ExcludeContracts: stringsAt(doc, "excludeContracts"),
	}
}

// HasRole reports whether the settings carry a directory for the given role.
func (s LegacySettings) HasRole(role LegacyRole) bool {
	return s.Dir(role) != ""
}

// Dir returns the directory recorded for the given role, or "".
func (s LegacySettings) Dir(role LegacyRole) string {
	switch role {
	case RoleExecutables:
		return s.HostsDir
	case RoleLibraries:
		return s.PluginsDir
	case RoleContracts:
		return s.ContractsDir
	default:
		return ""
	}
}

// Include returns the include list recorded for the given role.
func (s LegacySettings) Include(role LegacyRole) []string {
	switch role {
	case RoleExecutables:
		return s.IncludeHosts
	case RoleLibraries:
		return s.IncludePlugins
	case RoleContracts:
		return s.IncludeContracts
	default:
		return nil
	}
}

// Exclude returns the exclude list recorded for the given role.
func (s LegacySettings) Exclude(role LegacyRole) []string {
	switch role {
	case RoleExecutables:
		return s.ExcludeHosts
	case RoleLibraries:
		return s.ExcludePlugins
	case RoleContracts:
		return s.ExcludeContracts
	default:
		return nil
	}
}

// stringAt reads a top-level string value by camel/Pascal key.
func stringAt(doc RawDocument, camel string) string {
	v, ok := lookupEither(doc, camel)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// stringsAt reads a top-level string array by camel/Pascal key.
// Non-string elements are skipped.
func stringsAt(doc RawDocument, camel string) []string {
	v, ok := lookupEither(doc, camel)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// boolAt reads a top-level boolean value by camel/Pascal key.
func boolAt(doc RawDocument, camel string) (bool, bool) {
	v, ok := lookupEither(doc, camel)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	if !ok {
		return false, false
	}
	return b, true
}
