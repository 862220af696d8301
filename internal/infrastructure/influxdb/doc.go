// Package influxdb records audit event counts in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every audit event
// becomes one point in the command_events measurement:
//
//	command_events,metric=Command_INVALID_ACTION,namespace=JarvisAI/Commands,severity=MEDIUM count=1i
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Audit.MetricNamespace)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	auditLog.AddMetricsSink(client)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned directly.
package influxdb
