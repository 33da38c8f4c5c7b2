package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateProfileName validates a profile/session name for safety.
// It ensures the name is a simple basename without path components, since
// stores use it as a filename.
func ValidateProfileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "profile name cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidConfig, "profile name cannot contain path separators")
	}

	// No hidden files (starting with .)
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidConfig, "profile name cannot start with a dot")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidConfig, "profile name cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateSliceName validates a chart (slice) name before it is sent to the
// remote service.
func ValidateSliceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidChart, "slice name cannot be empty")
	}

	if len(name) > 250 {
		return New(ErrCodeInvalidChart, "slice name too long (max 250 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidChart, "slice name contains invalid control characters")
		}
	}

	return nil
}

// vizTypeRegex matches valid visualization type identifiers.
var vizTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateVizType validates a visualization type identifier.
func ValidateVizType(vizType string) error {
	if vizType == "" {
		return New(ErrCodeInvalidChart, "viz type cannot be empty")
	}

	if !vizTypeRegex.MatchString(vizType) {
		return New(ErrCodeInvalidChart, "invalid viz type: %q", vizType)
	}

	return nil
}
