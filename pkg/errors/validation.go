package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameLength bounds constraint and variable names accepted from problem files.
const maxNameLength = 255

// ValidateName validates a constraint or variable name read from a problem file.
// Names end up one per line in .dec exports, so they must be non-empty,
// free of whitespace and control characters, and reasonably short.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidProblem, "%s name cannot be empty", kind)
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidProblem, "%s name %q... too long (max %d characters)", kind, name[:32], maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidProblem, "%s name %q contains whitespace or control characters", kind, name)
		}
	}
	return nil
}

// ValidatePath validates an output path for export files.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes
//   - Relative paths may not climb above the working directory
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null byte")
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) && (clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))) {
		return New(ErrCodeInvalidPath, "path %q escapes the working directory", path)
	}
	return nil
}
