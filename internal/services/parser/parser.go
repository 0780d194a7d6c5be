// Package parser extracts a canonical video identifier from user input.
package parser

import (
	"regexp"

	"github.com/grabtube/grabtube/internal/utils"
)

// Patterns are tried in order: full watch-page URL, short link, embed and
// legacy /v/ forms, then a bare 11-character identifier.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:.*&)?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/(?:embed|v|shorts)/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ParseVideoID returns the 11-character video identifier contained in raw
// input, or an invalid-URL error when no pattern matches.
func ParseVideoID(raw string) (string, error) {
	for _, pattern := range patterns {
		if matches := pattern.FindStringSubmatch(raw); len(matches) > 1 {
			return matches[1], nil
		}
	}
	return "", utils.NewInvalidURLError()
}

// IsVideoURL reports whether raw input carries an extractable identifier.
func IsVideoURL(raw string) bool {
	_, err := ParseVideoID(raw)
	return err == nil
}
