// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SchemaCurrent marks a document using the projectGroups layout.
	SchemaCurrent SchemaVersion = "current"
	// SchemaLegacy marks a document using the flat hostsDir/pluginsDir/contractsDir layout.
	SchemaLegacy SchemaVersion = "legacy"
)

// ErrInvalidSchemaVersion is returned when a SchemaVersion value is not one of the defined versions.
var ErrInvalidSchemaVersion = errors.New("invalid schema version")

// legacyMarkers are the top-level keys that identify a legacy document.
// Both camelCase and PascalCase spellings occur in the wild; both are
// recognized, and nothing else is.
var legacyMarkers = []string{
	"hostsDir",
	"pluginsDir",
	"contractsDir",
	"includeHosts",
	"excludeHosts",
	"includePlugins",
	"excludePlugins",
	"includeContracts",
	"excludeContracts",
}

type (
	// SchemaVersion classifies a config document's layout generation.
	SchemaVersion string

	// InvalidSchemaVersionError is returned when a SchemaVersion value is not recognized.
	// It wraps ErrInvalidSchemaVersion for errors.Is() compatibility.
	InvalidSchemaVersionError struct {
		Value SchemaVersion
	}
)

// String returns the string representation of the SchemaVersion.
func (v SchemaVersion) String() string { return string(v) }

// Validate returns nil if the SchemaVersion is one of the defined versions,
// or a validation error if it is not.
func (v SchemaVersion) Validate() error {
	switch v {
	case SchemaCurrent, SchemaLegacy:
		return nil
	default:
		return &InvalidSchemaVersionError{Value: v}
	}
}

// Error implements the error interface for InvalidSchemaVersionError.
func (e *InvalidSchemaVersionError) Error() string {
	return fmt.Sprintf("invalid schema version %q (valid: current, legacy)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidSchemaVersionError) Unwrap() error {
	return ErrInvalidSchemaVersion
}

// DetectSchema classifies a raw document as current or legacy.
//
// The rules, in order:
//  1. a top-level projectGroups key in any casing ⇒ current
//  2. any legacy marker key (camelCase or PascalCase) ⇒ legacy
//  3. otherwise ⇒ current (an empty or minimal document is trivially current)
//
// A document carrying both projectGroups and legacy markers is current: the
// groups are authoritative and the stale markers are left for the semantic
// layer to flag.
func DetectSchema(doc RawDocument) SchemaVersion {
	for key := range doc {
		if strings.EqualFold(key, "projectGroups") {
			return SchemaCurrent
		}
	}

	for _, marker := range legacyMarkers {
		if _, ok := lookupEither(doc, marker); ok {
			return SchemaLegacy
		}
	}

	return SchemaCurrent
}

// lookupEither fetches a top-level value by its camelCase key or the
// PascalCase spelling derived from it.
func lookupEither(doc RawDocument, camel string) (any, bool) {
	if v, ok := doc[camel]; ok {
		return v, true
	}
	if v, ok := doc[pascal(camel)]; ok {
		return v, true
	}
	return nil, false
}

// pascal upper-cases the first byte of an ASCII camelCase key.
func pascal(camel string) string {
	if camel == "" {
		return camel
	}
	return strings.ToUpper(camel[:1]) + camel[1:]
}
