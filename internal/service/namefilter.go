package service

import (
	"strings"
	"unicode"
)

var defaultBlockedWords = []string{
	"arse", "ass", "asshole", "bastard", "bitch", "bollocks", "crap", "cunt",
	"damn", "dick", "douche", "fuck", "fucker", "motherfucker", "piss",
	"prick", "shit", "slut", "twat", "wanker", "whore",
}

var leetReplacer = strings.NewReplacer(
	"0", "o", "1", "i", "3", "e", "4", "a", "5", "s", "7", "t", "@", "a", "$", "s", "!", "i",
)

// NameFilter rejects display names containing blocked words.
// Matching is per word after lowercasing and undoing common character
// substitutions, plus the whole name with separators removed.
type NameFilter struct {
	blocked map[string]struct{}
}

// NewNameFilter creates a filter over the built-in list plus extra words.
func NewNameFilter(extra []string) *NameFilter {
	blocked := make(map[string]struct{}, len(defaultBlockedWords)+len(extra))
	for _, w := range append(append([]string{}, defaultBlockedWords...), extra...) {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			blocked[w] = struct{}{}
		}
	}
	return &NameFilter{blocked: blocked}
}

// IsAllowed reports whether name may be shown on the leaderboard.
func (f *NameFilter) IsAllowed(name string) bool {
	normalized := leetReplacer.Replace(strings.ToLower(name))
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, ok := f.blocked[w]; ok {
			return false
		}
	}
	if _, ok := f.blocked[strings.Join(words, "")]; ok {
		return false
	}
	return true
}
