// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ActionCompile builds the group's projects without producing artifacts.
	ActionCompile GroupAction = "compile"
	// ActionPack builds the group's projects and produces NuGet packages.
	ActionPack GroupAction = "pack"
	// ActionPublish builds the group's projects and produces deployable output.
	ActionPublish GroupAction = "publish"
)

var (
	// ErrInvalidGroupAction is returned when a GroupAction value is not one of the defined actions.
	ErrInvalidGroupAction = errors.New("invalid group action")
	// ErrInvalidGroupName is returned when a GroupName is empty or whitespace-only.
	ErrInvalidGroupName = errors.New("invalid group name")
)

type (
	// GroupAction selects which bucket a project group's discovered projects
	// land in when the document is resolved.
	GroupAction string

	// GroupName identifies a project group. Group names come from the keys of
	// the projectGroups object and must be non-empty.
	GroupName string

	// InvalidGroupActionError is returned when a GroupAction value is not recognized.
	// It wraps ErrInvalidGroupAction for errors.Is() compatibility.
	InvalidGroupActionError struct {
		Value GroupAction
	}

	// InvalidGroupNameError is returned when a GroupName is empty or whitespace-only.
	InvalidGroupNameError struct {
		Value GroupName
	}
)

// String returns the string representation of the GroupAction.
func (a GroupAction) String() string { return string(a) }

// Validate returns nil if the GroupAction is one of the defined actions,
// or a validation error if it is not.
// Note: the zero value ("") is NOT valid; it serves as a sentinel for
// "no action declared". Use Canonical to fold it to the default.
func (a GroupAction) Validate() error {
	switch a {
	case ActionCompile, ActionPack, ActionPublish:
		return nil
	default:
		return &InvalidGroupActionError{Value: a}
	}
}

// Canonical folds an action value to its canonical bucket.
//
// Matching is case-insensitive: "Pack" and "pack" are the same action. An
// empty value is the documented default and maps to compile with known=true.
// Anything else also maps to compile, but with known=false so callers can
// surface a note about the unrecognized spelling. Routing never fails.
func (a GroupAction) Canonical() (action GroupAction, known bool) {
	switch strings.ToLower(strings.TrimSpace(string(a))) {
	case "":
		return ActionCompile, true
	case string(ActionCompile):
		return ActionCompile, true
	case string(ActionPack):
		return ActionPack, true
	case string(ActionPublish):
		return ActionPublish, true
	default:
		return ActionCompile, false
	}
}

// String returns the string representation of the GroupName.
func (n GroupName) String() string { return string(n) }

// Validate returns nil if the GroupName is non-empty and not whitespace-only,
// or a validation error if it is not.
func (n GroupName) Validate() error {
	if strings.TrimSpace(string(n)) == "" {
		return &InvalidGroupNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidGroupActionError.
func (e *InvalidGroupActionError) Error() string {
	return fmt.Sprintf("invalid group action %q (valid: compile, pack, publish)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidGroupActionError) Unwrap() error {
	return ErrInvalidGroupAction
}

// Error implements the error interface for InvalidGroupNameError.
func (e *InvalidGroupNameError) Error() string {
	return fmt.Sprintf("invalid group name %q (must not be empty or whitespace-only)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidGroupNameError) Unwrap() error {
	return ErrInvalidGroupName
}
