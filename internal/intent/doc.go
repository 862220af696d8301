// Package intent maps free-form smart-home commands to a structured intent.
//
// Parsing is rule based and deterministic. Rules are evaluated in a fixed
// order against the normalised (lower-cased, whitespace-collapsed) text and
// the first rule whose predicate matches produces the result:
//
//  1. light on / light off
//  2. temperature set
//  3. weather query
//  4. media play / media stop
//  5. scene activation
//  6. door lock / unlock
//  7. status queries (lights, temperature, security, general)
//
// Text that no rule matches yields Unknown with the original text in
// the "original_command" parameter. Parse never fails.
//
// Optional parameters that cannot be extracted are present with a nil value,
// so callers can distinguish "not mentioned" from "not applicable".
package intent
