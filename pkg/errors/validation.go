package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxAssetNameLength bounds asset names so they fit comfortably in file
// names, Redis keys and SQL primary keys.
const maxAssetNameLength = 128

// assetNameRegex matches names usable as a file basename on every backend.
var assetNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateAssetName validates the name under which a Graph Store is persisted.
// It rejects names that could be used for path traversal or key injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - No path separators or ".." sequences
//   - Only letters, digits, '.', '_' and '-', starting with a letter or digit
func ValidateAssetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAssetName, "asset name cannot be empty")
	}
	if len(name) > maxAssetNameLength {
		return New(ErrCodeInvalidAssetName, "asset name too long (max %d characters)", maxAssetNameLength)
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidAssetName, "asset name cannot contain path traversal sequences (..)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidAssetName, "asset name cannot contain path separators")
	}
	if !assetNameRegex.MatchString(name) {
		return New(ErrCodeInvalidAssetName, "invalid asset name: %q", name)
	}
	return nil
}

// ValidateNodeID validates a node identifier supplied from outside the
// editor (CLI arguments, scripts, HTTP bodies). The empty string is the
// unconnected-port sentinel and is never a valid node id.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid characters: %q", id)
		}
	}
	return nil
}

// ValidatePortName validates an output port label. Names are cosmetic, so
// the only rule is that they are printable.
func ValidatePortName(name string) error {
	for _, r := range name {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "port name contains control characters")
		}
	}
	return nil
}
