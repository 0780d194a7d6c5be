package utils

import "strings"

// maxFilenameBase bounds the derived base name so the Content-Disposition
// header and common filesystems stay within limits.
const maxFilenameBase = 120

// SanitizeFilename derives a download filename base from a video title:
// every non-alphanumeric rune becomes an underscore and the result is
// lowercased and truncated. The caller appends the extension.
func SanitizeFilename(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "video"
	}
	if len(name) > maxFilenameBase {
		name = name[:maxFilenameBase]
	}
	return name
}
