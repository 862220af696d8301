// Package api implements the HTTP REST API and WebSocket server for Jarvis Core.
//
// This package provides:
//   - POST /api/v1/intent for natural-language commands
//   - POST /api/v1/commands for structured commands and batches
//   - Compliance finding queries, runtime metrics and credential rotation
//   - A WebSocket hub that streams audit events to operators
//   - Middleware stack (request ID, tracing, logging, recovery, CORS, API key)
//
// # Status Codes
//
// 200 for success, 400 for rejected input (validation, unknown intent,
// unsupported type, missing body, malformed JSON), 401 for a missing or wrong
// API key, 502 when the device-control API fails, and 500 for configuration
// or internal failures. Internal causes are logged, never returned.
//
// # Security
//
// Every route except /api/v1/health requires the shared API key in the
// X-API-Key header or as an Authorization bearer token. Browsers cannot set
// headers on WebSocket upgrades, so /api/v1/events/ws also accepts it as the
// api_key query parameter.
package api
