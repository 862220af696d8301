// Package pipeline runs one inbound request through parse, validate,
// resolve and execute.
//
// Every request gets its own command.Session, so the per-session ceiling
// applies within a request (or a batch) and never across requests. A batch
// shares one session across its commands.
//
// Process methods return a Response for every outcome the caller should see,
// including validation failures and upstream errors. The returned error is
// non-nil only for configuration failures (credentials.ErrConfiguration),
// which the HTTP layer reports as an internal error without details.
package pipeline
