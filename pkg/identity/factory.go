package identity

import (
	"fmt"

	"github.com/gomodule/redigo/redis"
)

// RepositoryConfig contains configuration for creating an identity repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
	// Pool is required for Redis repositories
	Pool *redis.Pool
	// KeyPrefix namespaces Redis keys
	KeyPrefix string
	// DataDir is required for file-based repositories
	DataDir string
}

// NewIdentityRepository creates a new identity store based on the persistence type
func NewIdentityRepository(persistenceType string, config RepositoryConfig) (IdentityStore, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresIdentityRepository(config.DB), nil
	case "redis":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for redis repository")
		}
		return NewRedisIdentityRepository(config.Pool, config.KeyPrefix), nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file repository")
		}
		return NewFileIdentityRepository(config.DataDir)
	case "memory", "":
		return NewInMemoryIdentityRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: memory, file, postgres, redis)", persistenceType)
	}
}
