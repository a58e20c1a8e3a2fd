// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxSize is the largest document Decode accepts when Schema.MaxSize
// is zero.
const DefaultMaxSize int64 = 5 << 20

// ErrDocumentTooLarge is returned for documents above the size limit.
var ErrDocumentTooLarge = errors.New("document too large")

// Schema is a CUE definition that documents are validated against. The
// source is compiled on every Decode, so a Schema may be shared between
// goroutines.
type Schema struct {
	source     string
	definition string
	// MaxSize caps the document size in bytes; zero means DefaultMaxSize.
	MaxSize int64
}

// NewSchema returns a Schema for the definition (e.g. "#Config") in source.
func NewSchema(source, definition string) *Schema {
	return &Schema{source: source, definition: definition}
}

// Decode unifies data with the definition, validates the result and decodes
// it into dst. Fields the definition leaves optional may stay absent. filename
// prefixes every error message.
func (s *Schema) Decode(data []byte, filename string, dst any) error {
	if filename == "" {
		filename = "<input>"
	}

	limit := s.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if size := int64(len(data)); size > limit {
		return fmt.Errorf("%s: %w: %d bytes exceeds maximum %d bytes", filename, ErrDocumentTooLarge, size, limit)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(s.source)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(s.definition))
	if !def.Exists() {
		return fmt.Errorf("compile schema: definition %s not found", s.definition)
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return formatError(err, filename)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(); err != nil {
		return formatError(err, filename)
	}
	if err := unified.Decode(dst); err != nil {
		return formatError(err, filename)
	}
	return nil
}
