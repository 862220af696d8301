package pipeline

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxInputLength bounds free-text commands when none is configured.
const DefaultMaxInputLength = 5000

// suspiciousPatterns are rejected wherever they appear in free text,
// compared case-insensitively.
var suspiciousPatterns = []string{
	"eval(",
	"exec(",
	"import os",
	"subprocess",
	"__import__",
	"rm -rf",
	"del /f",
	"format c:",
	"drop table",
	"delete from",
	"insert into",
	"update set",
}

// screenResult is the outcome of screening free text.
type screenResult struct {
	pattern string
	tooLong bool
}

func (r screenResult) ok() bool {
	return r.pattern == "" && !r.tooLong
}

// screen checks text for injection patterns, then length in runes.
func screen(text string, maxLen int) screenResult {
	lower := strings.ToLower(text)
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			return screenResult{pattern: p}
		}
	}
	if utf8.RuneCountInString(text) > maxLen {
		return screenResult{tooLong: true}
	}
	return screenResult{}
}

// sample truncates s to n runes for inclusion in audit context.
func sample(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
