// Package config handles loading and validating EstateHub Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The persisted session database holds a live bearer token; keep the
//     storage path on a filesystem with restricted permissions
//   - Service URLs should use HTTPS outside local development
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Identity.BaseURL)
package config
