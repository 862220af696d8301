package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
)

type recordingPublisher struct {
	topics []string
	values []any
	err    error
}

func (r *recordingPublisher) PublishJSON(topic string, v any) error {
	r.topics = append(r.topics, topic)
	r.values = append(r.values, v)
	return r.err
}

func TestAuditPublisher(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewAuditPublisher(rec, nil)

	e := audit.Event{Type: audit.EventSuspiciousInput, Severity: audit.SeverityHigh}
	p.PublishEvent(e)

	f := audit.NewFinding(e)
	if err := p.ReportFinding(context.Background(), f); err != nil {
		t.Fatalf("ReportFinding() error = %v", err)
	}

	want := []string{
		"jarvis/audit/event/suspicious_input_detected",
		"jarvis/compliance/finding/high",
	}
	if diff := cmp.Diff(want, rec.topics); diff != "" {
		t.Errorf("topics mismatch (-want +got):\n%s", diff)
	}
	if got, ok := rec.values[1].(*audit.Finding); !ok || got.ID != f.ID {
		t.Errorf("finding payload = %#v", rec.values[1])
	}
}

func TestAuditPublisher_Errors(t *testing.T) {
	rec := &recordingPublisher{err: ErrNotConnected}
	p := NewAuditPublisher(rec, nil)

	// PublishEvent swallows the error.
	p.PublishEvent(audit.Event{Type: audit.EventCommandReceived})

	err := p.ReportFinding(context.Background(), &audit.Finding{Severity: audit.SeverityCritical})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("ReportFinding() error = %v, want ErrNotConnected", err)
	}
}
