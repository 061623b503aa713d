package normalize

import (
	"regexp"
	"strings"
)

var (
	// artistSeparator splits on commas, spaced ampersands and the spaced conjunction 和.
	artistSeparator = regexp.MustCompile(`\s*,\s*|\s+&\s+|\s+和\s+`)

	// displaySeparator splits a catalog artist display string. It has no conjunction case.
	displaySeparator = regexp.MustCompile(`\s*,\s*|\s+&\s+`)
)

// Artists splits a raw artist string into individual names, dropping empties
// and exact duplicates while keeping first-occurrence order.
func Artists(raw string) []string {
	parts := artistSeparator.Split(raw, -1)
	seen := make(map[string]bool, len(parts))
	artists := make([]string, 0, len(parts))

	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		artists = append(artists, name)
	}

	return artists
}

// DisplayTokens splits a catalog artist display string such as "A, B & C".
// Empty tokens are kept so callers see the raw split.
func DisplayTokens(display string) []string {
	return displaySeparator.Split(display, -1)
}
