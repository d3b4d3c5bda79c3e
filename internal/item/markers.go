package item

import "strings"

// embeddedKeywords mark an embedded or indirect question when they occur
// inside a grammar tag.
var embeddedKeywords = []string{
	"embedded",
	"indirect",
	"whether",
	"wondering",
	"find out",
	"tell me",
	"do you know",
}

// HasEmbeddedMarker reports whether any grammar tag names an embedded or
// indirect question. Matching is case-insensitive; "if" only counts as a
// free-standing word.
func HasEmbeddedMarker(grammarPoints []string) bool {
	for _, gp := range grammarPoints {
		tag := strings.ToLower(gp)
		for _, kw := range embeddedKeywords {
			if strings.Contains(tag, kw) {
				return true
			}
		}
		for _, w := range strings.FieldsFunc(tag, notLetter) {
			if w == "if" {
				return true
			}
		}
	}
	return false
}

func notLetter(r rune) bool {
	return !(r >= 'a' && r <= 'z')
}
