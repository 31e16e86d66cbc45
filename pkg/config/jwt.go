package config

import (
	"time"
)

// JWTConfig holds the shared secret and claims used by the evaluation API
// verifier and by the session token node.
type JWTConfig struct {
	Secret             string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer             string `env:"JWT_ISSUER" env-default:"profile-property-node"`
	Audience           string `env:"JWT_AUDIENCE" env-default:"profile-property-node"`
	SessionTokenExpiry string `env:"SESSION_TOKEN_EXPIRY" env-default:"15m"`
}

// ParseSessionTokenExpiry parses the session token expiry duration
func (j JWTConfig) ParseSessionTokenExpiry() (time.Duration, error) {
	return time.ParseDuration(j.SessionTokenExpiry)
}

// Validate checks the secret and the expiry format
func (j JWTConfig) Validate() ValidationErrors {
	errs := CollectErrors(
		RequireNonEmpty("JWT_SECRET", j.Secret),
		RequireNonEmpty("JWT_ISSUER", j.Issuer),
	)
	expiry, err := j.ParseSessionTokenExpiry()
	if err != nil {
		return append(errs, ValidationError{Field: "SESSION_TOKEN_EXPIRY", Message: err.Error()})
	}
	if verr := RequirePositiveDuration("SESSION_TOKEN_EXPIRY", expiry); verr != nil {
		errs = append(errs, *verr)
	}
	return errs
}
