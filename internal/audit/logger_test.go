package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/config"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSinks struct {
	mu       sync.Mutex
	metrics  []string
	findings []*Finding
	streamed []string
	failWith error
}

func (r *recordingSinks) WriteEventMetric(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, e.Type)
	return r.failWith
}

func (r *recordingSinks) ReportFinding(_ context.Context, f *Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, f)
	return r.failWith
}

func (r *recordingSinks) PublishEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamed = append(r.streamed, e.Type)
}

func runLogger(t *testing.T, opts Options, events ...Event) (*Logger, *recordingSinks) {
	t.Helper()
	sinks := &recordingSinks{}
	opts.Metrics = []MetricsSink{sinks}
	opts.Findings = []FindingSink{sinks}
	opts.Streams = []EventStream{sinks}

	l := NewLogger(opts)
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)

	for _, e := range events {
		l.Record(context.Background(), e)
	}

	cancel()
	l.Wait()
	return l, sinks
}

func TestLogger_DispatchesToSinks(t *testing.T) {
	events := []Event{
		{Type: EventCommandReceived, Severity: SeverityInfo},
		{Type: EventCommandValidationFailed, Severity: SeverityHigh},
		{Type: EventInputTooLong, Severity: SeverityMedium},
		{Type: EventSuspiciousInput, Severity: SeverityCritical},
	}

	l, sinks := runLogger(t, Options{}, events...)

	if len(sinks.metrics) != 4 {
		t.Errorf("metrics = %v, want 4 entries", sinks.metrics)
	}
	if len(sinks.streamed) != 4 {
		t.Errorf("streamed = %v, want 4 entries", sinks.streamed)
	}

	// Default threshold is HIGH: only the HIGH and CRITICAL events escalate.
	if len(sinks.findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(sinks.findings))
	}
	if sinks.findings[0].EventType != EventCommandValidationFailed {
		t.Errorf("first finding = %q, want %q", sinks.findings[0].EventType, EventCommandValidationFailed)
	}

	stats := l.Stats()
	if stats.Escalated != 2 {
		t.Errorf("Escalated = %d, want 2", stats.Escalated)
	}
	if stats.Events[EventCommandReceived] != 1 {
		t.Errorf("Events[COMMAND_RECEIVED] = %d, want 1", stats.Events[EventCommandReceived])
	}
	if stats.Severities[SeverityHigh] != 1 || stats.Severities[SeverityCritical] != 1 {
		t.Errorf("Severities = %v", stats.Severities)
	}
}

func TestLogger_ThresholdIsConfigurable(t *testing.T) {
	_, sinks := runLogger(t, Options{Threshold: SeverityMedium},
		Event{Type: EventInputTooLong, Severity: SeverityMedium},
		Event{Type: EventCommandReceived, Severity: SeverityLow},
	)

	if len(sinks.findings) != 1 || sinks.findings[0].EventType != EventInputTooLong {
		t.Errorf("findings = %+v, want only INPUT_TOO_LONG", sinks.findings)
	}
}

func TestLogger_SinkErrorsDoNotStopDispatch(t *testing.T) {
	sinks := &recordingSinks{failWith: errors.New("sink down")}
	l := NewLogger(Options{
		Metrics:  []MetricsSink{sinks},
		Findings: []FindingSink{sinks},
	})
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)

	l.Record(ctx, Event{Type: EventRateLimitExceeded, Severity: SeverityHigh})
	l.Record(ctx, Event{Type: EventRateLimitExceeded, Severity: SeverityHigh})

	cancel()
	l.Wait()

	if len(sinks.findings) != 2 {
		t.Errorf("findings = %d, want 2 despite sink errors", len(sinks.findings))
	}
}

func TestLogger_RecordNeverBlocks(t *testing.T) {
	l := NewLogger(Options{QueueSize: 1})

	// Dispatcher not started: the first event fills the queue, the rest drop.
	for i := 0; i < 5; i++ {
		l.Record(context.Background(), Event{Type: EventCommandReceived, Severity: SeverityInfo})
	}

	stats := l.Stats()
	if stats.Dropped != 4 {
		t.Errorf("Dropped = %d, want 4", stats.Dropped)
	}
	if stats.Events[EventCommandReceived] != 5 {
		t.Errorf("Events counted = %d, want 5 (drops are still counted)", stats.Events[EventCommandReceived])
	}
}

func TestLogger_DrainsQueueOnShutdown(t *testing.T) {
	sinks := &recordingSinks{}
	l := NewLogger(Options{Metrics: []MetricsSink{sinks}, QueueSize: 10})

	for i := 0; i < 3; i++ {
		l.Record(context.Background(), Event{Type: EventCommandSuccess, Severity: SeverityInfo})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Start(ctx)
	l.Wait()

	if len(sinks.metrics) != 3 {
		t.Errorf("metrics after drain = %d, want 3", len(sinks.metrics))
	}
}

func TestLogger_LogsStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &buf)

	l := NewLogger(Options{Logger: logger})
	l.Record(context.Background(), Event{
		Type:      EventInvalidAction,
		Message:   "Invalid action attempted: self_destruct",
		Severity:  SeverityHigh,
		SessionID: "sess-42",
	})

	out := buf.String()
	for _, want := range []string{`"event_type":"INVALID_ACTION"`, `"severity":"HIGH"`, `"session_id":"sess-42"`, `"level":"ERROR"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestLogger_DefaultsInvalidSeverity(t *testing.T) {
	l := NewLogger(Options{})
	l.Record(context.Background(), Event{Type: "X"})

	if got := l.Stats().Severities[SeverityInfo]; got != 1 {
		t.Errorf("Severities[INFO] = %d, want 1", got)
	}
}
