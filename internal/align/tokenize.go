package align

import "strings"

// strippedPunct is removed before word comparison.
const strippedPunct = ".,!?;:"

// Tokenize lowercases text, strips .,!?;: and splits on whitespace.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedPunct, r) {
			return -1
		}
		return r
	}, lowered)
	return strings.Fields(cleaned)
}

// Normalize returns the tokenized form of text joined by single spaces.
func Normalize(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// matchAt reports whether needle occurs in words starting at pos.
func matchAt(words []string, pos int, needle []string) bool {
	if len(needle) == 0 || pos < 0 || pos+len(needle) > len(words) {
		return false
	}
	for i, w := range needle {
		if words[pos+i] != w {
			return false
		}
	}
	return true
}

// ContainsSequence reports whether needle occurs contiguously in words.
func ContainsSequence(words, needle []string) bool {
	for pos := 0; pos+len(needle) <= len(words); pos++ {
		if matchAt(words, pos, needle) {
			return true
		}
	}
	return false
}

// terminalPunct reports whether s ends in sentence-final punctuation.
func terminalPunct(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!")
}

// suffixOf returns the sentence-final punctuation of s, or "".
func suffixOf(s string) string {
	s = strings.TrimSpace(s)
	if !terminalPunct(s) {
		return ""
	}
	return s[len(s)-1:]
}
