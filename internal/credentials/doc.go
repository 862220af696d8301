// Package credentials supplies the device-control base URL and bearer token.
//
// A Provider fetches the secret document from a Store once, caches the
// parsed Credential for the life of the process and hands out copies.
// Concurrent first calls share a single fetch. Invalidate drops the cache so
// the next Get fetches again, which is how token rotation is picked up.
//
// Two stores are provided:
//
//   - FileStore: a local YAML file keyed by secret id, optionally watched
//     with fsnotify so edits invalidate the cache automatically
//   - AWSStore: AWS Secrets Manager
//
// The secret document is a JSON or YAML object with "url" and "token"
// (or "ha_url" and "ha_token"). A document missing either is a
// configuration error, the only failure the pipeline propagates upward.
package credentials
