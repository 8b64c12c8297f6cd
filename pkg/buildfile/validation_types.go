// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SeverityError indicates a finding that blocks the build by convention.
	SeverityError IssueSeverity = iota
	// SeverityWarning indicates a likely mistake that doesn't block the build.
	SeverityWarning
	// SeverityInfo indicates an advisory note.
	SeverityInfo
)

// Codes attached to semantic validation findings. They match the documented
// issue codes so `anvil explain <code>` can expand any finding.
const (
	CodeMissingSourceDir    IssueCode = "missing-source-dir"
	CodeMissingInclude      IssueCode = "missing-include-project"
	CodeDuplicateProject    IssueCode = "duplicate-project"
	CodeUnknownAction       IssueCode = "unknown-action"
	CodeDuplicateLegacyRole IssueCode = "duplicate-legacy-role"
	CodeAmbiguousInclude    IssueCode = "ambiguous-include"
)

// ErrInvalidIssueSeverity is returned when an IssueSeverity value is not one of the defined severities.
var ErrInvalidIssueSeverity = errors.New("invalid issue severity")

type (
	// IssueSeverity indicates the severity level of a validation finding.
	IssueSeverity int

	// IssueCode is the stable identifier attached to a class of findings.
	IssueCode string

	// InvalidIssueSeverityError is returned when an IssueSeverity value is not recognized.
	// It wraps ErrInvalidIssueSeverity for errors.Is() compatibility.
	InvalidIssueSeverityError struct {
		Value IssueSeverity
	}

	// ValidationIssue is one finding from the semantic validator: pure data,
	// no behavior beyond formatting. Findings accumulate in an ordered list;
	// callers derive pass/fail from the presence of Error-severity entries.
	ValidationIssue struct {
		// Severity classifies the finding.
		Severity IssueSeverity
		// Code identifies the finding's class for documentation lookup.
		Code IssueCode
		// Message is the human-readable description.
		Message string
		// Group names the project group involved, when one is.
		Group GroupName
		// Path is the file or directory the finding refers to, when one is.
		Path string
		// Line is the 1-based document line, when known. Zero means unknown.
		Line int
		// Suggestion hints at a fix, when one is obvious.
		Suggestion string
	}

	// ValidationIssues is an ordered collection of findings that implements
	// the error interface, so a validation pass can be returned as a single
	// error value when callers want that shape.
	ValidationIssues []ValidationIssue
)

// Error implements the error interface for InvalidIssueSeverityError.
func (e *InvalidIssueSeverityError) Error() string {
	return fmt.Sprintf("invalid issue severity %d (valid: 0=error, 1=warning, 2=info)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidIssueSeverityError) Unwrap() error {
	return ErrInvalidIssueSeverity
}

// Validate returns nil if the IssueSeverity is one of the defined severity
// levels, or a validation error if it is not.
func (s IssueSeverity) Validate() error {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return nil
	default:
		return &InvalidIssueSeverityError{Value: s}
	}
}

// String returns a human-readable representation of the severity level.
func (s IssueSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// String returns the string representation of the IssueCode.
func (c IssueCode) String() string { return string(c) }

// Error implements the error interface for ValidationIssue.
func (i ValidationIssue) Error() string {
	if i.Group != "" {
		return fmt.Sprintf("group %q: %s", i.Group, i.Message)
	}
	return i.Message
}

// IsError returns true if this is an error-level finding.
func (i ValidationIssue) IsError() bool {
	return i.Severity == SeverityError
}

// IsWarning returns true if this is a warning-level finding.
func (i ValidationIssue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// IsInfo returns true if this is an info-level finding.
func (i ValidationIssue) IsInfo() bool {
	return i.Severity == SeverityInfo
}

// Error implements the error interface by joining all finding messages.
func (issues ValidationIssues) Error() string {
	if len(issues) == 0 {
		return ""
	}
	if len(issues) == 1 {
		return issues[0].Error()
	}

	var b strings.Builder
	b.WriteString("validation found ")
	errorCount := issues.ErrorCount()
	warningCount := issues.WarningCount()

	if errorCount > 0 {
		if errorCount == 1 {
			b.WriteString("1 error")
		} else {
			b.WriteString(itoa(errorCount))
			b.WriteString(" errors")
		}
	}
	if warningCount > 0 {
		if errorCount > 0 {
			b.WriteString(" and ")
		}
		if warningCount == 1 {
			b.WriteString("1 warning")
		} else {
			b.WriteString(itoa(warningCount))
			b.WriteString(" warnings")
		}
	}
	if errorCount == 0 && warningCount == 0 {
		b.WriteString(itoa(len(issues)))
		b.WriteString(" notes")
	}
	b.WriteString(":\n")

	for i, issue := range issues {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(issue.Error())
	}

	return b.String()
}

// HasErrors returns true if there are any error-level findings.
func (issues ValidationIssues) HasErrors() bool {
	for _, i := range issues {
		if i.IsError() {
			return true
		}
	}
	return false
}

// HasWarnings returns true if there are any warning-level findings.
func (issues ValidationIssues) HasWarnings() bool {
	for _, i := range issues {
		if i.IsWarning() {
			return true
		}
	}
	return false
}

// Errors returns only the error-level findings.
func (issues ValidationIssues) Errors() ValidationIssues {
	var result ValidationIssues
	for _, i := range issues {
		if i.IsError() {
			result = append(result, i)
		}
	}
	return result
}

// Warnings returns only the warning-level findings.
func (issues ValidationIssues) Warnings() ValidationIssues {
	var result ValidationIssues
	for _, i := range issues {
		if i.IsWarning() {
			result = append(result, i)
		}
	}
	return result
}

// Infos returns only the info-level findings.
func (issues ValidationIssues) Infos() ValidationIssues {
	var result ValidationIssues
	for _, i := range issues {
		if i.IsInfo() {
			result = append(result, i)
		}
	}
	return result
}

// ErrorCount returns the number of error-level findings.
func (issues ValidationIssues) ErrorCount() int {
	count := 0
	for _, i := range issues {
		if i.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level findings.
func (issues ValidationIssues) WarningCount() int {
	count := 0
	for _, i := range issues {
		if i.IsWarning() {
			count++
		}
	}
	return count
}

// itoa converts an integer to a string without importing strconv.
// This is a simple helper to avoid an extra import for basic number formatting.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	if i < 0 {
		return "-" + itoa(-i)
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
