package mqtt

import (
	"context"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
)

// Publisher is the subset of Client used by AuditPublisher.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// AuditPublisher forwards audit events and compliance findings to the broker.
// It implements audit.EventStream and audit.FindingSink.
type AuditPublisher struct {
	pub    Publisher
	logger *logging.Logger
}

// NewAuditPublisher wraps pub. A nil logger discards publish failures.
func NewAuditPublisher(pub Publisher, logger *logging.Logger) *AuditPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuditPublisher{pub: pub, logger: logger.With("component", "mqtt")}
}

// PublishEvent publishes e to jarvis/audit/event/{type}. Failures are logged.
func (p *AuditPublisher) PublishEvent(e audit.Event) {
	if err := p.pub.PublishJSON(Topics{}.AuditEvent(e.Type), e); err != nil {
		p.logger.Warn("audit event publish failed", "event_type", e.Type, "error", err)
	}
}

// ReportFinding publishes f to jarvis/compliance/finding/{severity}.
func (p *AuditPublisher) ReportFinding(_ context.Context, f *audit.Finding) error {
	return p.pub.PublishJSON(Topics{}.ComplianceFinding(string(f.Severity)), f)
}
