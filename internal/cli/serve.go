package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not migrate the schema on startup")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	db, err := database.New(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if migrate {
		if err := database.RunMigrations(ctx, db, a.logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var redisClient *redis.Client
	if a.cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(a.cfg, a.logger)
		if err != nil {
			// caching, rate limits and token revocation degrade without Redis
			a.logger.WithError(err).Warn("continuing without Redis")
		} else {
			defer redisClient.Close()
		}
	}

	store, err := storage.New(ctx, a.cfg)
	if err != nil {
		return err
	}

	engine := router.SetupRouter(router.Dependencies{
		Config: a.cfg,
		Logger: a.logger,
		DB:     db,
		Redis:  redisClient,
		Store:  store,
	})

	return server.New(a.cfg, engine, a.logger).Serve(ctx)
}
