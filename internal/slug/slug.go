// Package slug derives canonical URL-safe identifiers from display names.
// The same rule names tenant partitions ("juzbuild_" + Normalize(domain))
// and entity slugs, so it must stay byte-stable: renaming the rule would
// orphan already-provisioned partitions.
package slug

import "strings"

// Normalize lowercases text, drops everything outside [a-z0-9 -], collapses
// whitespace and repeated hyphens into single hyphens and trims hyphens at
// both ends. Total function: never fails, empty input gives "".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-':
			b.WriteByte('-')
		}
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	return strings.Join(parts, "-")
}
