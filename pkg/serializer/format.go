package serializer

import (
	"path/filepath"
	"strings"
)

// Format identifies an output encoding.
type Format string

const (
	// FormatJSON encodes as indented JSON.
	FormatJSON Format = "json"

	// FormatYAML encodes as YAML.
	FormatYAML Format = "yaml"

	// FormatTable renders a flattened FIELD/VALUE text table for
	// terminal viewing.
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	}
	return true
}

// SupportedFormats returns the supported format names.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// FormatFromPath guesses the format from a file extension.
// Unrecognized extensions default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatJSON
	}
}
