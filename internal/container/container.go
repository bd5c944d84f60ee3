package container

import (
	"context"
	"fmt"

	"kukkee/internal/config"
	"kukkee/internal/repository"
	"kukkee/internal/service"
	"kukkee/internal/service/auth"
	"kukkee/pkg/database"
	"kukkee/pkg/logger"
	"kukkee/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Repository  repository.PollRepository
	Cache       *service.CacheService
	Services    *service.Services
}

// New creates a new dependency injection container. Without DATABASE_URL the
// poll store lives in memory; a Redis that cannot be reached only disables caching.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	var (
		db   *database.PostgresDB
		repo repository.PollRepository
	)
	if cfg.DatabaseURL != "" {
		opts := database.DefaultPoolOptions()
		if cfg.DatabaseMaxConns > 0 {
			opts.MaxConns = cfg.DatabaseMaxConns
		}
		conn, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db = conn
		repo = repository.NewPostgresPollRepository(db)
		logger.Info("PostgreSQL poll store initialized")
	} else {
		repo = repository.NewMemoryPollRepository()
		logger.Warn("DATABASE_URL not configured, polls are kept in memory")
	}

	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	cache := service.NewCacheService(redisClient, cfg.PollCacheTTL, logger.Logger)

	services := &service.Services{
		Auth: auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, logger),
		Polls: service.NewPollService(repo, cache, logger.Logger,
			service.WithCommitAttempts(cfg.PollCommitAttempts)),
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		RedisClient: redisClient,
		Repository:  repo,
		Cache:       cache,
		Services:    services,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetPollService returns the poll service
func (c *Container) GetPollService() service.PollOperations {
	return c.Services.Polls
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase returns true if polls are stored in PostgreSQL
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}
