package services

import (
	"regexp"
	"strings"
)

var (
	parenPattern   = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketPattern = regexp.MustCompile(`\s*\[[^\]]*\]`)
	editionPattern = regexp.MustCompile(`\b(1st edition|limited edition|unlimited edition|limited|unlimited|\d+(?:st|nd|rd|th) edition)\b`)
	spacePattern   = regexp.MustCompile(`\s+`)
	compactPattern = regexp.MustCompile(`[^a-z0-9]+`)

	quoteReplacer = strings.NewReplacer(`"`, "", "'", "", "`", "", "‘", "", "’", "", "“", "", "”", "")
)

// GenerateNameVariants produces progressively looser lookup keys for a
// card's display name: the plain lower-cased name, then with
// parenthesized text, bracketed text, edition words, dashes, and quote
// characters removed, and finally a fully compacted [a-z0-9] form. Each
// transformation chains off the previous one; duplicates and forms that
// collapse to nothing are dropped. Empty input yields an empty slice.
func GenerateNameVariants(name string) []string {
	base := strings.ToLower(strings.TrimSpace(name))
	if base == "" {
		return []string{}
	}

	variants := []string{base}
	seen := map[string]bool{base: true}
	cur := base

	// Apply each loosening step to the loosest non-empty form so far. A
	// step that collapses the name to nothing is discarded and the chain
	// continues from the previous form.
	for _, transform := range []func(string) string{
		func(s string) string { return parenPattern.ReplaceAllString(s, "") },
		func(s string) string { return bracketPattern.ReplaceAllString(s, "") },
		func(s string) string { return editionPattern.ReplaceAllString(s, "") },
		func(s string) string { return strings.ReplaceAll(s, "-", " ") },
		quoteReplacer.Replace,
		NormalizeNameKey,
	} {
		next := strings.TrimSpace(spacePattern.ReplaceAllString(transform(cur), " "))
		if next == "" {
			continue
		}
		if !seen[next] {
			seen[next] = true
			variants = append(variants, next)
		}
		cur = next
	}

	return variants
}

// NormalizeNameKey compacts a name down to its [a-z0-9] characters.
// Idempotent: normalizing an already-normalized key is a no-op.
func NormalizeNameKey(name string) string {
	return compactPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}
