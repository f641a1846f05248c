package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ImportExtensions lists the file extensions accepted for import.
var ImportExtensions = []string{".drawio", ".xml", ".json"}

// ValidateImportPath checks that a file name carries one of [ImportExtensions].
// The comparison is case-insensitive.
func ValidateImportPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "import path cannot be empty")
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range ImportExtensions {
		if ext == allowed {
			return nil
		}
	}
	if ext == "" {
		return New(ErrCodeInvalidFormat, "file %q has no extension (accepted: %s)", filepath.Base(path), strings.Join(ImportExtensions, ", "))
	}
	return New(ErrCodeInvalidFormat, "unsupported file extension %q (accepted: %s)", ext, strings.Join(ImportExtensions, ", "))
}

// ValidateFilename validates an export filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	if len(filename) > 255 {
		return New(ErrCodeInvalidPath, "filename too long (max 255 characters)")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid control characters")
		}
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidPath, "filename cannot be %q", filename)
	}

	return nil
}

// storeIDRegex matches identifiers accepted by the diagram stores.
var storeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateStoreID validates a stored diagram identifier.
// IDs end up as file names and redis keys, so the rules are conservative:
//   - 1 to 128 characters
//   - Letters, digits, dot, underscore and dash
//   - Must start with a letter or digit
//   - No ".." sequences
func ValidateStoreID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "diagram id cannot be empty")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "diagram id cannot contain path traversal sequences (..)")
	}
	if !storeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid diagram id: %q", id)
	}
	return nil
}
