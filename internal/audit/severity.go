package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity classifies a security event.
type Severity string

// Severity levels in ascending order.
const (
	SeverityInfo     Severity = "INFO"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// normalizedScores is the 0-100 scale used on findings.
var normalizedScores = map[Severity]int{
	SeverityInfo:     10,
	SeverityLow:      25,
	SeverityMedium:   50,
	SeverityHigh:     75,
	SeverityCritical: 100,
}

// ParseSeverity parses a case-insensitive severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
	return sev, nil
}

// Valid reports whether s is one of the five known levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is as severe as or more severe than min.
// Unknown severities rank as MEDIUM.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// Normalized returns the 0-100 score for s. Unknown severities score 50.
func (s Severity) Normalized() int {
	if v, ok := normalizedScores[s]; ok {
		return v
	}
	return normalizedScores[SeverityMedium]
}

func (s Severity) rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return severityRank[SeverityMedium]
}

// UnmarshalJSON accepts any letter case.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
