// Package lsof decodes the field-mode output of `lsof -F` into typed records.
//
// Ownership boundary:
// - field code dictionary
// - token splitting and value coercion
// - line and stream record assembly
//
// The package has no knowledge of where lines come from or how records are
// exported; see internal/source and internal/export.
package lsof
