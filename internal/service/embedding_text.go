package service

import "strings"

const maxLabelTextRunes = 200

func normalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// labelEmbeddingText builds the space-joined text embedded for a label set.
// Labels keep detection order. Unlike a plain join, case-insensitive
// duplicates are dropped and the result is capped at maxLabelTextRunes, so a
// label set without repeats or stray whitespace that fits the cap embeds
// exactly as strings.Join(labels, " ").
func labelEmbeddingText(labels []string) string {
	seen := make(map[string]struct{}, len(labels))
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		l = normalizeWhitespace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, l)
	}

	text := strings.Join(parts, " ")
	runes := []rune(text)
	if len(runes) <= maxLabelTextRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLabelTextRunes]))
}
