// Package factory wires the application together
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/plaza-world/plaza/internal/dependencies/clock"
	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/services/auth"
	"github.com/plaza-world/plaza/internal/session"
	"github.com/plaza-world/plaza/internal/storage"
	"github.com/plaza-world/plaza/internal/storage/memory"
	redisstorage "github.com/plaza-world/plaza/internal/storage/redis"
	"github.com/plaza-world/plaza/internal/world"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Storage
	Clock   clock.Clock

	World      *world.Store
	Sessions   *session.Registry
	Moderation *moderation.Service
	Auth       *auth.Service
	Processor  *game.Processor
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// ModerationConfig holds moderation settings (optional)
	ModerationConfig moderation.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	return newWithDependencies(store, clk, cfg.ModerationConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, modCfg moderation.Config, logger *slog.Logger) *App {
	worldStore := world.New()
	sessions := session.New(logger, nil)
	mod := moderation.New(store, clk, logger, modCfg)
	authService := auth.New(store, clk, logger)
	processor := game.NewProcessor(worldStore, sessions, mod, authService, clk, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		World:      worldStore,
		Sessions:   sessions,
		Moderation: mod,
		Auth:       authService,
		Processor:  processor,
	}
}
