package intent

import "strings"

// Parse maps text to an intent and its parameters using the first matching
// rule. It is pure and total: every input, including the empty string,
// produces a result.
func Parse(text string) (Intent, Params) {
	normalized := Normalize(text)
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Extract(normalized)
		}
	}
	return Unknown, Params{ParamOriginalCommand: normalized}
}

// Normalize lower-cases text and collapses whitespace runs to single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// MatchingRule returns the name of the rule that would handle text, or ""
// when the text falls through to Unknown.
func MatchingRule(text string) string {
	normalized := Normalize(text)
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Name
		}
	}
	return ""
}
