package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateTileDim checks that a square tile of size dim fits a rows x cols grid.
// Both axes must hold at least one full tile; a non-positive dim is rejected.
func ValidateTileDim(dim, rows, cols int) error {
	if dim <= 0 {
		return New(ErrCodeInvalidTileDim, "tile dim must be positive, got %d", dim)
	}
	if rows < dim || cols < dim {
		return New(ErrCodeInvalidTileDim, "tile dim %d too large for shape (%d x %d)", dim, rows, cols)
	}
	return nil
}

// ValidateShape checks that two grids share the same extent.
// name identifies the offending grid in the error message.
func ValidateShape(name string, rows, cols, wantRows, wantCols int) error {
	if rows != wantRows || cols != wantCols {
		return New(ErrCodeShapeMismatch, "%s shape (%d x %d) does not match (%d x %d)", name, rows, cols, wantRows, wantCols)
	}
	return nil
}

// ValidatePrefix validates a tile filename prefix.
// The prefix becomes part of every saved tile filename, so it must not
// contain path separators, traversal sequences or control characters.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidInput, "tile prefix cannot be empty")
	}
	if len(prefix) > 64 {
		return New(ErrCodeInvalidInput, "tile prefix too long (max 64 characters)")
	}
	for _, r := range prefix {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "tile prefix contains invalid control characters")
		}
	}
	if strings.ContainsAny(prefix, "/\\") || strings.Contains(prefix, "..") {
		return New(ErrCodeInvalidInput, "tile prefix cannot contain path components: %q", prefix)
	}
	return nil
}

// ValidateOutputDir validates an output directory for saved tiles.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - The cleaned path cannot be the filesystem root
func ValidateOutputDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}
	for _, r := range dir {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output directory contains invalid characters")
		}
	}
	if filepath.Clean(dir) == string(filepath.Separator) {
		return New(ErrCodeInvalidPath, "refusing to write tiles into the filesystem root")
	}
	return nil
}
