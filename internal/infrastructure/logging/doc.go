// Package logging provides structured logging for Jarvis Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//
// # Security
//
// Never log device-control tokens or the inbound API key. Base URLs are
// truncated before logging (see credentials.Credential.MaskedURL).
package logging
