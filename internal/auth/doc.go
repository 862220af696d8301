// Package auth authenticates callers of the Jarvis HTTP API.
//
// Jarvis uses a single shared API key. The key is configured either in plain
// form (security.api_key, normally via JARVIS_SECURITY_API_KEY) or as an
// Argon2id PHC hash produced by `jarvis hash-key` (security.api_key_hash).
//
// Argon2id parameters follow the OWASP 2025 recommendation.
package auth
