package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/gomodule/redigo/redis"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/profile-property-node/pkg/authtree"
	"github.com/tendant/profile-property-node/pkg/config"
	"github.com/tendant/profile-property-node/pkg/identity"
	"github.com/tendant/profile-property-node/pkg/profileproperty"
	"github.com/tendant/profile-property-node/pkg/sessiontoken"
	"github.com/tendant/profile-property-node/pkg/treeapi"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// Node
	NodeConfigFile string   `env:"NODE_CONFIG_FILE" env-default:"profile_property.yaml"`
	ProvidedKeys   []string `env:"PROVIDED_KEYS" env-separator:"," env-default:"username,realm"`

	// Session token
	SessionTokenEnabled  bool     `env:"SESSION_TOKEN_ENABLED" env-default:"true"`
	SessionTokenClaims   []string `env:"SESSION_TOKEN_CLAIMS" env-separator:","`
	SessionTokenRequired bool     `env:"SESSION_TOKEN_CLAIMS_REQUIRED" env-default:"false"`

	Store    config.StoreConfig
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	JWT      config.JWTConfig

	// Server
	AppConfig app.AppConfig
}

func (c Config) validate() error {
	validators := []config.Validator{c.Store.Validate, c.JWT.Validate}
	switch c.Store.PersistenceType {
	case config.PersistencePostgres:
		validators = append(validators, c.Database.Validate)
	case config.PersistenceRedis:
		validators = append(validators, c.Redis.Validate)
	}
	return config.Validate(validators...)
}

func main() {
	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	_ = level.UnmarshalText([]byte(config.ParseLogLevel(cfg.LogLevel)))
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting profile property node service", "store", cfg.Store.PersistenceType)

	if err := cfg.validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open identity store", "type", cfg.Store.PersistenceType, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Store.SeedFile != "" {
		count, err := identity.SeedFromFile(ctx, store, cfg.Store.SeedFile)
		if err != nil {
			slog.Error("Failed to seed identity store", "path", cfg.Store.SeedFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Identity store seeded", "path", cfg.Store.SeedFile, "count", count)
	}

	executor, err := buildTree(cfg, store)
	if err != nil {
		slog.Error("Failed to build authentication tree", "error", err)
		os.Exit(1)
	}

	handler := treeapi.NewHandler(executor)
	auth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Mount("/api/tree", treeapi.Routes(handler, auth))

	slog.Info("Profile property node service ready", "nodes", len(executor.Nodes()))
	server.Run()
}

func buildTree(cfg Config, store identity.IdentityStore) (*authtree.TreeExecutor, error) {
	nodeConfig, err := profileproperty.LoadConfigFile(cfg.NodeConfigFile)
	if err != nil {
		return nil, err
	}
	profileNode, err := profileproperty.NewNode(nodeConfig, store)
	if err != nil {
		return nil, err
	}
	slog.Info("Profile property node configured",
		"realm", identity.NormalizeRealm(nodeConfig.Realm),
		"attributes", nodeConfig.Mapping().SourceAttributes())

	builder := authtree.NewTreeBuilder().AddNode(profileNode)

	if cfg.SessionTokenEnabled {
		expiry, err := cfg.JWT.ParseSessionTokenExpiry()
		if err != nil {
			return nil, err
		}
		claims := cfg.SessionTokenClaims
		if len(claims) == 0 {
			claims = nodeConfig.Mapping().DestinationKeys()
		}
		generator := sessiontoken.NewGenerator(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, expiry)
		tokenNode, err := sessiontoken.NewNode(generator, claims, cfg.SessionTokenRequired)
		if err != nil {
			return nil, err
		}
		builder.AddNode(tokenNode)
	}

	return builder.BuildValidated(cfg.ProvidedKeys)
}

func openStore(ctx context.Context, cfg Config) (identity.IdentityStore, func(), error) {
	repoConfig := identity.RepositoryConfig{DataDir: cfg.Store.DataDir}
	closeFn := func() {}

	switch cfg.Store.PersistenceType {
	case config.PersistencePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.ToDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Database connected", "database", cfg.Database.Database, "schema", cfg.Database.Schema)
		repoConfig.DB = pool
		closeFn = pool.Close
	case config.PersistenceRedis:
		pool := newRedisPool(cfg.Redis)
		repoConfig.Pool = pool
		repoConfig.KeyPrefix = cfg.Redis.KeyPrefix
		closeFn = func() { _ = pool.Close() }
	}

	store, err := identity.NewIdentityRepository(cfg.Store.PersistenceType, repoConfig)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func newRedisPool(cfg config.RedisConfig) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		IdleTimeout: cfg.IdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", cfg.Addr,
				redis.DialPassword(cfg.Password),
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(5*time.Second))
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func loadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		return
	}

	envFile := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}
