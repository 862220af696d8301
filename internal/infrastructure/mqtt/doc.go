// Package mqtt publishes Jarvis Core audit traffic to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// Jarvis only publishes. Every security event goes to
// jarvis/audit/event/{event_type} and every escalated compliance finding to
// jarvis/compliance/finding/{severity}, so dashboards and SIEM collectors can
// subscribe without touching the core.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Event payloads never contain device-control tokens; URLs are masked
//     before they reach an event
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.AuditEvent("RATE_LIMIT_EXCEEDED")
//	client.Publish(topic, payload, 1, false)
package mqtt
