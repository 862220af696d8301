// Package audit records security events raised by the command pipeline.
//
// Every pipeline stage reports what it did as an Event. The Logger writes each
// event to the structured log immediately, counts it, and hands it to a single
// background dispatcher that fans out to the configured sinks:
//
//   - MetricsSink: one count metric per event (Command_<EVENT_TYPE>)
//   - EventStream: live subscribers (WebSocket clients, MQTT)
//   - FindingSink: compliance findings, only for events at or above the
//     escalation threshold (HIGH by default)
//
// Recording never blocks the caller. When the dispatcher queue is full the
// event is still logged and counted but not dispatched, and the drop is counted.
//
// Findings are persisted in the compliance_findings table via SQLiteRepository.
package audit
