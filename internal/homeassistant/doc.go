// Package homeassistant is a minimal client for the Home Assistant REST API.
//
// Only the calls the command executor needs are implemented:
//
//   - POST /api/services/{domain}/{service}
//   - GET  /api/states
//   - GET  /api/states/{entity_id}
//   - GET  /api/ (reachability check)
//
// Credentials are passed per call rather than held by the Client, so a
// rotated token takes effect on the next request without rebuilding it.
//
// Outcome classification:
//   - 200 and 201 are success
//   - any other status is a *StatusError carrying the code and body
//   - timeouts wrap ErrTimeout, other transport failures wrap ErrConnection
//
// Nothing is retried here.
package homeassistant
