// Package executor turns validated intents and commands into device-control
// API calls and reports the outcome as a Result.
//
// Execute and ExecuteCommand never return an error and never panic on bad
// input: every failure becomes a Result with Success false and an Error
// message. Upstream failures are not retried.
//
// Entity ids come from the entity package. Status intents read every state
// once and summarise it client side.
package executor
