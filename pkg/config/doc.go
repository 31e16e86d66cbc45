// Package config holds the configuration structs and validation shared by the
// profile property node service.
//
// # Structured Configs
//
// Each struct carries cleanenv tags and is loaded with cleanenv.ReadEnv as
// part of the service config:
//
//   - StoreConfig selects memory, file, postgres or redis
//   - DatabaseConfig builds the PostgreSQL URL
//   - RedisConfig configures the redigo pool
//   - JWTConfig holds the HMAC secret and session token expiry
//
// # Validation
//
//	err := config.Validate(
//		cfg.Store.Validate,
//		cfg.JWT.Validate,
//	)
//	if err != nil {
//		// err is a ValidationErrors listing every bad field
//	}
package config
