package audit

import (
	"time"

	"github.com/google/uuid"
)

// Finding categories. Event types map onto these to pick finding types and
// remediation guidance.
const (
	CategoryAuthenticationFailure = "AUTHENTICATION_FAILURE"
	CategoryUnauthorizedAccess    = "UNAUTHORIZED_ACCESS"
	CategorySuspiciousActivity    = "SUSPICIOUS_ACTIVITY"
	CategoryConfigurationError    = "CONFIGURATION_ERROR"
	CategoryAPIAbuse              = "API_ABUSE"
	CategorySecretExposure        = "SECRET_EXPOSURE"
	CategoryRateLimiting          = "RATE_LIMITING"
	CategoryInputValidation       = "INPUT_VALIDATION"
)

// Compliance statuses carried on findings.
const (
	ComplianceWarning = "WARNING"
	ComplianceFailed  = "FAILED"
)

// relatedRequirements are the NIST CSF controls every finding references.
var relatedRequirements = []string{
	"NIST-CSF:PR.AC-1",
	"NIST-CSF:PR.AC-4",
	"NIST-CSF:DE.CM-1",
	"NIST-CSF:DE.AE-3",
}

var eventCategories = map[string]string{
	EventUnauthorizedAccess:      CategoryUnauthorizedAccess,
	EventRateLimitExceeded:       CategoryRateLimiting,
	EventCommandValidationFailed: CategoryInputValidation,
	EventInvalidAction:           CategoryInputValidation,
	EventSuspiciousInput:         CategoryInputValidation,
	EventInputTooLong:            CategoryInputValidation,
	EventCommandRejected:         CategoryInputValidation,
	EventUnsupportedType:         CategoryInputValidation,
	EventConfigError:             CategoryConfigurationError,
}

var findingTypes = map[string][]string{
	CategoryAuthenticationFailure: {"TTPs/Defense Evasion", "Sensitive Data Identifications"},
	CategoryUnauthorizedAccess:    {"TTPs/Initial Access", "Effects/Data Exfiltration"},
	CategorySuspiciousActivity:    {"TTPs/Discovery", "Unusual Behaviors"},
	CategoryConfigurationError:    {"Sensitive Data Identifications/PII", "Software and Configuration Checks"},
	CategoryAPIAbuse:              {"TTPs/Impact", "Network/Port Scan"},
	CategorySecretExposure:        {"Sensitive Data Identifications/Credentials"},
	CategoryRateLimiting:          {"TTPs/Impact/Network Denial of Service"},
	CategoryInputValidation:       {"TTPs/Initial Access/Exploit Public-Facing Application"},
}

const defaultFindingType = "Unusual Behaviors/Application"

var remediations = map[string]string{
	CategoryAuthenticationFailure: "Review authentication logs and consider implementing additional MFA requirements.",
	CategoryUnauthorizedAccess:    "Immediately review access permissions and rotate credentials if necessary.",
	CategorySuspiciousActivity:    "Investigate the activity pattern and consider blocking the source if malicious.",
	CategoryConfigurationError:    "Review and correct the configuration following security best practices.",
	CategoryAPIAbuse:              "Implement rate limiting and review API usage patterns.",
	CategorySecretExposure:        "Immediately rotate exposed secrets and review access logs.",
	CategoryRateLimiting:          "Monitor for continued abuse and consider permanent blocking.",
	CategoryInputValidation:       "Review input validation logic and implement additional sanitization.",
}

const defaultRemediation = "Review the security event and implement appropriate remediation measures."

// Finding is a compliance record derived from an escalated Event.
type Finding struct {
	ID                  string         `json:"id"`
	EventType           string         `json:"event_type"`
	Category            string         `json:"category,omitempty"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Severity            Severity       `json:"severity"`
	NormalizedSeverity  int            `json:"normalized_severity"`
	Types               []string       `json:"types"`
	Remediation         string         `json:"remediation"`
	ComplianceStatus    string         `json:"compliance_status"`
	RelatedRequirements []string       `json:"related_requirements"`
	SessionID           string         `json:"session_id,omitempty"`
	Context             map[string]any `json:"context,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// NewFinding builds the compliance finding for e.
func NewFinding(e Event) *Finding {
	category := CategoryFor(e.Type)

	status := ComplianceWarning
	if e.Severity == SeverityCritical {
		status = ComplianceFailed
	}

	created := e.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return &Finding{
		ID:                  "fnd-" + uuid.NewString(),
		EventType:           e.Type,
		Category:            category,
		Title:               "Jarvis security event: " + e.Type,
		Description:         e.Message,
		Severity:            e.Severity,
		NormalizedSeverity:  e.Severity.Normalized(),
		Types:               FindingTypes(category),
		Remediation:         Remediation(category),
		ComplianceStatus:    status,
		RelatedRequirements: append([]string(nil), relatedRequirements...),
		SessionID:           e.SessionID,
		Context:             e.Context,
		CreatedAt:           created,
	}
}

// CategoryFor returns the finding category for an event type, or "" when the
// event type has no dedicated category.
func CategoryFor(eventType string) string {
	if c, ok := eventCategories[eventType]; ok {
		return c
	}
	if _, ok := findingTypes[eventType]; ok {
		return eventType
	}
	return ""
}

// FindingTypes returns the finding type taxonomy for a category.
func FindingTypes(category string) []string {
	if types, ok := findingTypes[category]; ok {
		return append([]string(nil), types...)
	}
	return []string{defaultFindingType}
}

// Remediation returns the remediation guidance for a category.
func Remediation(category string) string {
	if r, ok := remediations[category]; ok {
		return r
	}
	return defaultRemediation
}
