// SPDX-License-Identifier: MPL-2.0

package discovery

import "errors"

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

const (
	// CodeScanPathInvalid indicates a group source directory could not be
	// resolved to an absolute path.
	CodeScanPathInvalid DiagnosticCode = "scan_path_invalid"
	// CodeWalkEntrySkipped indicates an unreadable entry was skipped during
	// a project scan.
	CodeWalkEntrySkipped DiagnosticCode = "walk_entry_skipped"
	// CodeConfigLoadFailed indicates the user-level configuration could not
	// be loaded and defaults are in effect.
	CodeConfigLoadFailed DiagnosticCode = "config_load_failed"
	// CodeLegacySchemaDetected indicates a build file still uses the legacy
	// schema and was upgraded in memory for this invocation only.
	CodeLegacySchemaDetected DiagnosticCode = "legacy_schema_detected"
)

var (
	// ErrInvalidSeverity is the sentinel error wrapped by InvalidSeverityError.
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")
	// ErrInvalidDiagnosticCode is the sentinel error wrapped by InvalidDiagnosticCodeError.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// InvalidSeverityError is returned when a Severity value is not recognized.
	// It wraps ErrInvalidSeverity for errors.Is() compatibility.
	InvalidSeverityError struct {
		Value Severity
	}

	// DiagnosticCode is a machine-readable diagnostic identifier. Codes are
	// stable snake_case strings so scripts can match on them.
	DiagnosticCode string

	// InvalidDiagnosticCodeError is returned when a DiagnosticCode value is
	// not recognized. It wraps ErrInvalidDiagnosticCode for errors.Is()
	// compatibility.
	InvalidDiagnosticCodeError struct {
		Value DiagnosticCode
	}

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "walk_entry_skipped").
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// IsValid returns whether the Severity is one of the defined levels, and a
// list of validation errors if it is not.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// Error implements the error interface for InvalidSeverityError.
func (e *InvalidSeverityError) Error() string {
	return "invalid diagnostic severity " + string(e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// String returns the string representation of the DiagnosticCode.
func (c DiagnosticCode) String() string { return string(c) }

// IsValid returns whether the DiagnosticCode is one of the defined codes,
// and a list of validation errors if it is not.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeScanPathInvalid, CodeWalkEntrySkipped, CodeConfigLoadFailed, CodeLegacySchemaDetected:
		return true, nil
	default:
		return false, []error{&InvalidDiagnosticCodeError{Value: c}}
	}
}

// Error implements the error interface for InvalidDiagnosticCodeError.
func (e *InvalidDiagnosticCodeError) Error() string {
	return "invalid diagnostic code " + string(e.Value)
}

// Unwrap returns ErrInvalidDiagnosticCode for errors.Is() compatibility.
func (e *InvalidDiagnosticCodeError) Unwrap() error { return ErrInvalidDiagnosticCode }

// NewDiagnostic creates a Diagnostic with no associated path or cause.
func NewDiagnostic(severity Severity, code DiagnosticCode, message string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message}
}

// NewDiagnosticWithPath creates a Diagnostic associated with a file path.
func NewDiagnosticWithPath(severity Severity, code DiagnosticCode, message, path string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path}
}

// NewDiagnosticWithCause creates a Diagnostic carrying an underlying error
// for programmatic inspection.
func NewDiagnosticWithCause(severity Severity, code DiagnosticCode, message, path string, cause error) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path, Cause: cause}
}
