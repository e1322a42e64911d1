package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/carebridge/care-backend/internal/domain/activity"
	"github.com/carebridge/care-backend/internal/domain/identity"
	"github.com/carebridge/care-backend/internal/domain/intake"
	"github.com/carebridge/care-backend/internal/domain/match"
	"github.com/carebridge/care-backend/internal/infra/config"
	"github.com/carebridge/care-backend/internal/infra/identityrepo"
	"github.com/carebridge/care-backend/internal/infra/intakearchive"
	"github.com/carebridge/care-backend/internal/infra/matchcache"
	"github.com/carebridge/care-backend/internal/infra/matchrepo"
	"github.com/carebridge/care-backend/internal/infra/pipeline"
)

func provideMatchConfig(cfg *config.Config) match.Config {
	return match.Config{
		DefaultRadiusKm:      cfg.Match.DefaultRadiusKm,
		DefaultProviderLimit: cfg.Match.DefaultProviderLimit,
		DefaultRequestLimit:  cfg.Match.DefaultRequestLimit,
		CacheTTL:             cfg.Match.CacheTTL,
	}
}

func provideIntakeConfig(cfg *config.Config) intake.Config {
	return intake.Config{PipelineURL: cfg.Pipeline.BaseURL}
}

func provideIdentityConfig(cfg *config.Config) config.IdentityConfig {
	return cfg.Identity
}

func provideActivityLog(cfg *config.Config) *activity.Log {
	return activity.NewLog(cfg.Activity.Capacity)
}

func providePipelineClient(cfg *config.Config) intake.PipelineClient {
	return pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.Timeout)
}

// providePostgresPool returns nil when postgres is not configured or not
// reachable; downstream providers fall back to memory repositories.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Match.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Match.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Match.Postgres.MaxConns
	}
	if cfg.Match.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Match.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideCandidateSource(pool *pgxpool.Pool) match.CandidateSource {
	if pool == nil {
		return matchrepo.NewMemoryRepository()
	}
	return matchrepo.NewPostgresRepository(pool)
}

func provideDirectory(pool *pgxpool.Pool) identity.Directory {
	if pool == nil {
		return identityrepo.NewMemoryRepository()
	}
	return identityrepo.NewPostgresRepository(pool)
}

func provideResolver(cfg *config.Config, directory identity.Directory, logger *slog.Logger) identity.Resolver {
	return identity.NewJWTResolver(cfg.Identity.JWTSecret, directory, logger)
}

func provideCandidateCache(cfg *config.Config, logger *slog.Logger) match.CandidateCache {
	if cfg.Match.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return matchcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return matchcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey candidate cache enabled", "addr", cfg.Match.Valkey.Addr)
			return matchcache.NewValkeyStore(client, "match")
		}
	}
	return matchcache.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Match.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Match.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Match.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// provideArchiver returns nil when archival is disabled; the intake service
// treats a nil archiver as a no-op.
func provideArchiver(cfg *config.Config, logger *slog.Logger) intake.AudioArchiver {
	if !cfg.Archive.Enabled {
		return nil
	}
	storage, err := intakearchive.NewObjectStorage(
		cfg.Archive.Endpoint,
		cfg.Archive.AccessKey,
		cfg.Archive.SecretKey,
		cfg.Archive.Bucket,
		cfg.Archive.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize audio archive, continuing without it", "error", err)
		return nil
	}
	logger.Info("audio archive enabled", "bucket", cfg.Archive.Bucket)
	return storage
}
