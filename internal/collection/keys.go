package collection

import (
	"regexp"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9._-]`)

// KeySegment turns a caller supplied id into a property key segment:
// lowercased, with every character outside [a-z0-9._-] replaced by '_'.
// A blank id becomes "unnamed".
func KeySegment(id string) string {
	if strings.TrimSpace(id) == "" {
		return "unnamed"
	}
	return unsafeKeyChars.ReplaceAllString(strings.ToLower(id), "_")
}
