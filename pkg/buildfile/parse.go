// SPDX-License-Identifier: MPL-2.0

package buildfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type (
	// RawDocument is the untyped tree form of a config document. The schema
	// detector and the migration engine work on this shape so they can handle
	// documents that do not fit the current typed model.
	RawDocument map[string]any

	// ParseError reports malformed JSON with a 1-based line and column.
	ParseError struct {
		// Path is the file the document came from; empty for in-memory parses.
		Path string
		// Line and Column locate the failure, 1-based. Zero when the
		// underlying decoder did not report an offset.
		Line   int
		Column int
		// Err is the underlying decoder error.
		Err error
	}
)

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "build config"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d, column %d: %v", where, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", where, e.Err)
}

// Unwrap returns the underlying decoder error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads and parses an anvil.json document from the given path.
func Parse(path string) (*BuildFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build config at %s: %w", path, err)
	}

	bf, err := ParseBytes(data, path)
	if err != nil {
		return nil, err
	}
	return bf, nil
}

// ParseBytes parses anvil.json content from bytes. The path is recorded on
// the document and used in error messages; it may be empty.
func ParseBytes(data []byte, path string) (*BuildFile, error) {
	var bf BuildFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, parseError(data, path, err)
	}
	bf.FilePath = path
	return &bf, nil
}

// ParseRaw reads and parses a config document into its untyped tree form.
func ParseRaw(path string) (RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build config at %s: %w", path, err)
	}
	return ParseRawBytes(data, path)
}

// ParseRawBytes parses config content from bytes into its untyped tree form.
func ParseRawBytes(data []byte, path string) (RawDocument, error) {
	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, parseError(data, path, err)
	}
	return doc, nil
}

// parseError converts a decoder error into a ParseError, computing the
// 1-based line/column from the byte offset when the decoder provides one.
func parseError(data []byte, path string, err error) error {
	pe := &ParseError{Path: path, Err: err}

	var offset int64 = -1
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &synErr):
		offset = synErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}

	if offset >= 0 {
		pe.Line, pe.Column = lineCol(data, offset)
	}
	return pe
}

// lineCol translates a byte offset into a 1-based line and column.
// Offsets reported by encoding/json point just past the offending token.
func lineCol(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
