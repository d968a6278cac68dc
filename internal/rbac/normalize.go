package rbac

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// roleStripper removes combining marks so that "Técnico" and "tecnico"
// resolve to the same policy key.
var roleStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRole canonicalizes a free-form role string into a policy key:
// trimmed, lowercased, diacritics stripped. It always returns a string,
// possibly empty; callers decide what an empty or unknown key means.
func NormalizeRole(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	stripped, _, err := transform.String(roleStripper, key)
	if err != nil {
		return key
	}
	return stripped
}
