package listing

import (
	"strings"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/lithammer/dedent"
)

const (
	// MaxDerivedTitleLen bounds titles built from raw attributes.
	MaxDerivedTitleLen = 80
	// MaxGeneratedTitleLen is the hard ceiling for AI-generated titles.
	MaxGeneratedTitleLen = 70

	// FallbackTitle is used when derivation produces nothing at all.
	FallbackTitle = "Vintage Item"
	// UntitledTitle is the fallback for AI-generated titles that come
	// back empty.
	UntitledTitle = "Untitled Item"
)

// placeholders are recognized non-informative values. A field holding one of
// these is treated as absent and never surfaced as if it were real data.
var placeholders = map[string]bool{
	"":              true,
	"unknown":       true,
	"n/a":           true,
	"na":            true,
	"none":          true,
	"not specified": true,
	"unspecified":   true,
	"see photos":    true,
	"see photo":     true,
	"tbd":           true,
	"-":             true,
	"?":             true,
}

// IsPlaceholder reports whether a field value is a recognized
// non-informative placeholder.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

var closingCallToAction = strings.TrimSpace(dedent.Dedent(`
	Please review all photos carefully as they are part of the description.
	Happy to answer any questions!
`))

// DeriveTitle builds a listing title from maker, style, base title, era and
// materials: placeholder-valued fields are omitted, duplicate words are
// collapsed (order preserved, first occurrence wins), and the result is
// truncated at a word boundary. Never returns an empty string.
func DeriveTitle(item *catalog.InventoryItem) string {
	parts := []string{item.Maker, item.Style, item.Title, item.Era, item.Materials}

	var words []string
	seen := map[string]bool{}
	for _, part := range parts {
		if IsPlaceholder(part) {
			continue
		}
		for _, w := range strings.Fields(part) {
			key := strings.ToLower(w)
			if placeholders[key] || seen[key] {
				continue
			}
			seen[key] = true
			words = append(words, w)
		}
	}

	title := TruncateAtWord(strings.Join(words, " "), MaxDerivedTitleLen)
	if title == "" {
		return FallbackTitle
	}
	return title
}

// DeriveDescription builds a listing description: hook text first, then a
// details bullet list, condition, owner's notes and a closing call to
// action, separated by blank lines. Sections whose underlying data is
// absent or a placeholder are omitted entirely.
func DeriveDescription(item *catalog.InventoryItem) string {
	var sections []string

	if !IsPlaceholder(item.Description) {
		sections = append(sections, strings.TrimSpace(item.Description))
	}

	if details := detailsSection(item); details != "" {
		sections = append(sections, details)
	}

	if !IsPlaceholder(item.Condition) {
		sections = append(sections, "Condition: "+strings.TrimSpace(item.Condition))
	}

	if !IsPlaceholder(item.Notes) {
		sections = append(sections, "Notes: "+strings.TrimSpace(item.Notes))
	}

	sections = append(sections, closingCallToAction)

	return strings.Join(sections, "\n\n")
}

func detailsSection(item *catalog.InventoryItem) string {
	fields := []struct{ label, value string }{
		{"Maker/Brand", item.Maker},
		{"Style/Pattern", item.Style},
		{"Era", item.Era},
		{"Materials", item.Materials},
		{"Markings", item.Markings},
		{"Category", item.Category},
	}

	var lines []string
	for _, f := range fields {
		if IsPlaceholder(f.value) {
			continue
		}
		lines = append(lines, "- "+f.label+": "+strings.TrimSpace(f.value))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Details:\n" + strings.Join(lines, "\n")
}

// fixedKeywords always appear in derived tags.
var fixedKeywords = []string{"vintage", "secondhand", "thrifted", "collectible"}

// DeriveTags builds a de-duplicated hashtag string from category, style,
// era and maker plus fixed keywords and space-split broad search terms.
// Placeholder values never become tags.
func DeriveTags(item *catalog.InventoryItem) string {
	var candidates []string

	for _, v := range []string{item.Category, item.Style, item.Era, item.Maker} {
		if IsPlaceholder(v) {
			continue
		}
		// The full value as one tag, plus each word as a broad term.
		candidates = append(candidates, v)
		candidates = append(candidates, strings.Fields(v)...)
	}
	candidates = append(candidates, fixedKeywords...)

	var tags []string
	seen := map[string]bool{}
	for _, c := range candidates {
		tag := hashtagify(c)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, "#"+tag)
	}

	return strings.Join(tags, " ")
}

// hashtagify lowercases and strips everything but letters and digits.
// Returns "" for values that reduce to nothing or to a placeholder.
func hashtagify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if placeholders[out] {
		return ""
	}
	return out
}

// TruncateAtWord truncates s to at most max characters without splitting a
// word and without leaving trailing whitespace. If the first word alone
// exceeds max it is cut hard at max.
func TruncateAtWord(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ")
}
