package errors

import (
	"strings"
	"unicode"
)

// maxIdentifierLength bounds document identifiers.
const maxIdentifierLength = 256

// ValidateIdentifier validates an object identifier taken from a graph
// document. It rejects identifiers that cannot be rendered or exported
// safely.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "identifier cannot be empty")
	}

	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidIdentifier, "identifier too long (max %d characters)", maxIdentifierLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "identifier %q contains invalid control characters", id)
		}
	}

	return nil
}

// ValidateFormat checks that format is one of the allowed values.
// The comparison is case-insensitive.
func ValidateFormat(format string, allowed ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
