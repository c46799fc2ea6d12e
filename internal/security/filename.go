// Package security holds helpers for turning user input into safe paths.
package security

import "strings"

// maxFilenameLen bounds the length of a sanitized name.
const maxFilenameLen = 128

// SanitizeFilename turns an arbitrary run name into a single path component.
// Runs of characters other than ASCII letters, digits, '.', '_' and '-' become
// one underscore; leading and trailing dots and underscores are trimmed so the
// result can never be "." or "..". An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		if isSafeRune(r) {
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
			continue
		}
		pendingSep = b.Len() > 0
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
