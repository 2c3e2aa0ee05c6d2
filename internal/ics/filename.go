package ics

import (
	"regexp"
	"strings"
)

const (
	// FileSuffix is appended to every derived filename.
	FileSuffix = ".ics"

	maxStemRunes = 30
	fallbackStem = "reminder"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a download name from a reminder title: lowercased, cut to
// 30 characters, runs of anything outside [a-z0-9] collapsed to one hyphen,
// hyphens trimmed from both ends.
func Filename(title string) string {
	stem := []rune(strings.ToLower(title))
	if len(stem) > maxStemRunes {
		stem = stem[:maxStemRunes]
	}
	slug := strings.Trim(nonSlugRun.ReplaceAllString(string(stem), "-"), "-")
	if slug == "" {
		slug = fallbackStem
	}
	return slug + FileSuffix
}
