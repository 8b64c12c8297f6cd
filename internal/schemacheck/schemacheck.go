// SPDX-License-Identifier: MPL-2.0

package schemacheck

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed anvil_schema.cue
var buildSchema string

// schemaRoot is the schema definition documents unify against.
const schemaRoot = "#BuildFile"

type (
	// Violation is one schema finding: where, and what went wrong.
	Violation struct {
		// Path is the JSON path to the offending value, such as
		// "projectGroups.services.sourceDir". Empty when the finding has no
		// single location.
		Path string
		// Message describes the mismatch.
		Message string
	}

	// SchemaError reports every violation found in one document.
	SchemaError struct {
		// FilePath is the document being checked.
		FilePath string
		// Violations holds the findings in schema-reported order.
		Violations []Violation
	}
)

// Error implements the error interface for SchemaError.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		if v.Path != "" {
			return fmt.Sprintf("%s: %s: %s", e.FilePath, v.Path, v.Message)
		}
		return fmt.Sprintf("%s: %s", e.FilePath, v.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: schema check failed:", e.FilePath)
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		if v.Path != "" {
			b.WriteString(v.Path)
			b.WriteString(": ")
		}
		b.WriteString(v.Message)
	}
	return b.String()
}

// Check validates raw document bytes against the current-shape schema.
//
// The flow compiles the embedded schema, compiles the document, unifies the
// two, and validates the result for concreteness. Shape mismatches come back
// as a *SchemaError carrying one Violation per finding; a nil return means
// the document is structurally sound. filename only labels findings.
func Check(data []byte, filename string) error {
	if filename == "" {
		filename = "<input>"
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(buildSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(schemaRoot))
	if root.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", schemaRoot, root.Err())
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if doc.Err() != nil {
		return &SchemaError{FilePath: filename, Violations: violations(doc.Err())}
	}

	unified := root.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{FilePath: filename, Violations: violations(err)}
	}

	return nil
}

// violations flattens a CUE error into findings with JSON paths.
func violations(err error) []Violation {
	var out []Violation
	for _, e := range cueerrors.Errors(err) {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path inside the message.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimPrefix(msg, path)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}

		out = append(out, Violation{Path: path, Message: msg})
	}
	if len(out) == 0 {
		out = append(out, Violation{Message: err.Error()})
	}
	return out
}

// formatPath converts a CUE error path to JSON-path notation: the flat
// elements ["projectGroups", "services", "include", "0"] render as
// "projectGroups.services.include[0]".
func formatPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[")
			b.WriteString(part)
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

// isIndex reports whether a path element is a list index.
func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
