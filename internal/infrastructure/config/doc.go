// Package config handles loading and validating Jarvis Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with JARVIS_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The inbound API key and device-control credentials never belong in the
//     config file in production. Use JARVIS_SECURITY_API_KEY (or a hash from
//     `jarvis hash-key`) and the secrets backend respectively.
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Pipeline.MaxCommandsPerSession)
package config
