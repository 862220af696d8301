package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
)

// DefaultQueueSize is the dispatcher buffer used when Options.QueueSize is zero.
const DefaultQueueSize = 256

// sinkTimeout bounds a single sink write so one slow sink cannot stall the queue.
const sinkTimeout = 5 * time.Second

// MetricsSink receives one count metric per event.
type MetricsSink interface {
	WriteEventMetric(ctx context.Context, e Event) error
}

// FindingSink receives compliance findings for escalated events.
type FindingSink interface {
	ReportFinding(ctx context.Context, f *Finding) error
}

// EventStream receives every event for live fan-out.
type EventStream interface {
	PublishEvent(e Event)
}

// Options configures a Logger.
type Options struct {
	// Threshold is the minimum severity escalated to finding sinks. Default HIGH.
	Threshold Severity
	QueueSize int
	Logger    *logging.Logger
	Metrics   []MetricsSink
	Findings  []FindingSink
	Streams   []EventStream
}

// Stats is a point-in-time snapshot of the Logger counters.
type Stats struct {
	Events     map[string]uint64   `json:"events"`
	Severities map[Severity]uint64 `json:"severities"`
	Escalated  uint64              `json:"escalated"`
	Dropped    uint64              `json:"dropped"`
}

// Logger is the audit Recorder used by the pipeline.
//
// Record logs and counts synchronously, then enqueues the event for the
// background dispatcher started by Start.
//
// Thread Safety:
//   - Record and Stats are safe for concurrent use.
type Logger struct {
	logger    *logging.Logger
	threshold Severity
	queue     chan Event

	metrics  []MetricsSink
	findings []FindingSink
	streams  []EventStream

	mu         sync.Mutex
	events     map[string]uint64
	severities map[Severity]uint64

	escalated atomic.Uint64
	dropped   atomic.Uint64

	startOnce sync.Once
	done      chan struct{}
}

// NewLogger creates an audit Logger. Call Start to begin dispatching to sinks.
func NewLogger(opts Options) *Logger {
	if !opts.Threshold.Valid() {
		opts.Threshold = SeverityHigh
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Logger{
		logger:     opts.Logger.With("component", "audit"),
		threshold:  opts.Threshold,
		queue:      make(chan Event, opts.QueueSize),
		metrics:    opts.Metrics,
		findings:   opts.Findings,
		streams:    opts.Streams,
		events:     make(map[string]uint64),
		severities: make(map[Severity]uint64),
		done:       make(chan struct{}),
	}
}

// Threshold returns the escalation threshold.
func (l *Logger) Threshold() Severity {
	return l.threshold
}

// AddStream registers a live subscriber. It must be called before Start.
func (l *Logger) AddStream(s EventStream) {
	l.streams = append(l.streams, s)
}

// AddFindingSink registers a compliance sink. It must be called before Start.
func (l *Logger) AddFindingSink(s FindingSink) {
	l.findings = append(l.findings, s)
}

// AddMetricsSink registers a metrics sink. It must be called before Start.
func (l *Logger) AddMetricsSink(s MetricsSink) {
	l.metrics = append(l.metrics, s)
}

// Record implements Recorder. It never blocks.
func (l *Logger) Record(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if !e.Severity.Valid() {
		e.Severity = SeverityInfo
	}

	l.logger.Log(ctx, logLevel(e.Severity), "security event",
		"event_type", e.Type,
		"severity", string(e.Severity),
		"session_id", e.SessionID,
		"event_message", e.Message,
		"context", e.Context,
	)

	l.mu.Lock()
	l.events[e.Type]++
	l.severities[e.Severity]++
	l.mu.Unlock()

	select {
	case l.queue <- e:
	default:
		l.dropped.Add(1)
		l.logger.Warn("audit queue full, event not dispatched",
			"event_type", e.Type,
			"severity", string(e.Severity),
		)
	}
}

// Start launches the dispatcher. It runs until ctx is cancelled, then drains
// whatever is still queued. Wait blocks until that drain has finished.
func (l *Logger) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

// Wait blocks until the dispatcher started by Start has exited.
func (l *Logger) Wait() {
	<-l.done
}

// Stats returns a snapshot of the counters.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	events := make(map[string]uint64, len(l.events))
	for k, v := range l.events {
		events[k] = v
	}
	severities := make(map[Severity]uint64, len(l.severities))
	for k, v := range l.severities {
		severities[k] = v
	}
	l.mu.Unlock()

	return Stats{
		Events:     events,
		Severities: severities,
		Escalated:  l.escalated.Load(),
		Dropped:    l.dropped.Load(),
	}
}

func (l *Logger) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case e := <-l.queue:
			l.dispatch(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-l.queue:
					l.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

// dispatch delivers one event to every sink. Sink errors are logged and
// otherwise ignored.
func (l *Logger) dispatch(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	for _, m := range l.metrics {
		if err := m.WriteEventMetric(ctx, e); err != nil {
			l.logger.Error("audit metric write failed", "event_type", e.Type, "error", err)
		}
	}

	for _, s := range l.streams {
		s.PublishEvent(e)
	}

	if !e.Severity.AtLeast(l.threshold) {
		return
	}

	l.escalated.Add(1)
	f := NewFinding(e)
	for _, fs := range l.findings {
		if err := fs.ReportFinding(ctx, f); err != nil {
			l.logger.Error("compliance finding report failed",
				"event_type", e.Type,
				"finding_id", f.ID,
				"error", err,
			)
		}
	}
}

func logLevel(s Severity) slog.Level {
	switch s {
	case SeverityMedium:
		return slog.LevelWarn
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
