package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
)

// eventMeasurement holds one count point per audit event.
const eventMeasurement = "command_events"

// MetricName returns the per-event metric name, e.g. "Command_INVALID_ACTION".
func MetricName(eventType string) string {
	return "Command_" + eventType
}

// WriteEventMetric records a count of 1 for e. It implements audit.MetricsSink.
//
// The write is non-blocking; points are batched and sent asynchronously, so
// delivery failures surface through SetOnError rather than the return value.
// ErrNotConnected is returned after Close.
func (c *Client) WriteEventMetric(ctx context.Context, e audit.Event) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		eventMeasurement,
		map[string]string{
			"metric":   MetricName(e.Type),
			"severity": string(e.Severity),
		},
		map[string]any{
			"count": 1,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
	return nil
}
