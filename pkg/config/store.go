package config

// Persistence types accepted by the identity store factory.
const (
	PersistenceMemory   = "memory"
	PersistenceFile     = "file"
	PersistencePostgres = "postgres"
	PersistenceRedis    = "redis"
)

// PersistenceTypes lists every supported identity store backend.
var PersistenceTypes = []string{PersistenceMemory, PersistenceFile, PersistencePostgres, PersistenceRedis}

// StoreConfig selects and configures the identity store backend
type StoreConfig struct {
	PersistenceType string `env:"IDM_STORE_TYPE" env-default:"memory"`
	DataDir         string `env:"IDM_STORE_DATA_DIR" env-default:"./data"`
	SeedFile        string `env:"IDM_STORE_SEED_FILE" env-default:""`
}

// Validate checks the persistence type and, for the file backend, the data dir
func (s StoreConfig) Validate() ValidationErrors {
	errs := CollectErrors(RequireOneOf("IDM_STORE_TYPE", s.PersistenceType, PersistenceTypes))
	if s.PersistenceType == PersistenceFile {
		errs = append(errs, CollectErrors(RequireNonEmpty("IDM_STORE_DATA_DIR", s.DataDir))...)
	}
	return errs
}
