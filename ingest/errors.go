package ingest

import (
	"fmt"
	"strings"
)

// EncodingError means a file could not be decoded by the detected charset nor
// by any entry of the fallback chain. Fatal for the whole ingestion call.
type EncodingError struct {
	File  string
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("file %q could not be decoded (tried: %s)", e.File, strings.Join(e.Tried, ", "))
}

// SchemaError means a required column is absent from a file's header.
// Fatal for the whole ingestion call.
type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("file %q is missing required column %q", e.File, e.Column)
}
