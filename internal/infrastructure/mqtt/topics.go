package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes.
const (
	// TopicPrefix is the root of every Jarvis topic.
	TopicPrefix = "jarvis"

	// TopicPrefixAudit is the base for security event topics.
	TopicPrefixAudit = "jarvis/audit"

	// TopicPrefixCompliance is the base for compliance finding topics.
	TopicPrefixCompliance = "jarvis/compliance"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "jarvis/system"
)

// Topics provides builders for Jarvis MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.AuditEvent("INVALID_ACTION")
//	// Returns: "jarvis/audit/event/invalid_action"
type Topics struct{}

// AuditEvent returns the topic for one security event type. The type is
// lower-cased so topic filters stay predictable.
//
// Example: jarvis/audit/event/rate_limit_exceeded
func (Topics) AuditEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixAudit, segment(eventType))
}

// ComplianceFinding returns the topic for findings of one severity.
//
// Example: jarvis/compliance/finding/high
func (Topics) ComplianceFinding(severity string) string {
	return fmt.Sprintf("%s/finding/%s", TopicPrefixCompliance, segment(severity))
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: jarvis/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllAuditEvents returns a pattern matching every security event.
//
// Pattern: jarvis/audit/event/+
func (Topics) AllAuditEvents() string {
	return TopicPrefixAudit + "/event/+"
}

// AllComplianceFindings returns a pattern matching every finding.
//
// Pattern: jarvis/compliance/finding/+
func (Topics) AllComplianceFindings() string {
	return TopicPrefixCompliance + "/finding/+"
}

// AllTopics returns a pattern matching all Jarvis topics.
//
// Pattern: jarvis/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// segment makes s safe for use as one topic level: lower-case, with the
// MQTT separators and wildcards replaced.
func segment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(s)
}
