package config

import "time"

// RedisConfig holds the connection settings for the Redis identity store
type RedisConfig struct {
	Addr        string        `env:"IDM_REDIS_ADDR" env-default:"localhost:6379"`
	Password    string        `env:"IDM_REDIS_PASSWORD" env-default:""`
	DB          int           `env:"IDM_REDIS_DB" env-default:"0"`
	MaxIdle     int           `env:"IDM_REDIS_MAX_IDLE" env-default:"8"`
	IdleTimeout time.Duration `env:"IDM_REDIS_IDLE_TIMEOUT" env-default:"5m"`
	KeyPrefix   string        `env:"IDM_REDIS_KEY_PREFIX" env-default:"idm"`
}

// Validate checks the Redis settings
func (r RedisConfig) Validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("IDM_REDIS_ADDR", r.Addr),
		RequireNonNegative("IDM_REDIS_DB", r.DB),
		RequirePositive("IDM_REDIS_MAX_IDLE", r.MaxIdle),
		RequireNonEmpty("IDM_REDIS_KEY_PREFIX", r.KeyPrefix),
	)
}
