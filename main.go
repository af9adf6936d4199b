package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"knowledge-base/config"
	"knowledge-base/graph"
	"knowledge-base/handlers"
	"knowledge-base/helper"
	"knowledge-base/middleware"
	"knowledge-base/repositories"
	"knowledge-base/repositories/memstore"
	"knowledge-base/services"
)

var (
	rootCmd = &cobra.Command{
		Use:   "knowledge-base",
		Short: "GraphQL API for versioned knowledge base articles",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("database migrated", "database", cfg.DBName)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// Initialize store
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	// Identity cache is optional
	var cache services.IdentityCache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisIdentityCache(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Info("identity cache enabled", "ttl", cfg.IdentityCacheTTL)
	}

	// Initialize services
	identityService := services.NewIdentityService(store.Users(), cfg.JWTSecret, cache, cfg.IdentityCacheTTL, logger)
	authService := services.NewAuthService(store.Users(), cfg.JWTSecret, cfg.JWTExpiration)
	versioning := services.NewVersioningEngine(cfg.VersionRetryLimit, logger)
	articleService := services.NewArticleService(store, versioning, services.ArticleServiceOptions{
		AllowUnpublishedReads: cfg.AllowUnpublishedReads,
	}, logger)
	commentService := services.NewCommentService(store, logger)
	userService := services.NewUserService(store.Users(), logger)

	// GraphQL schema
	resolver := graph.NewResolver(articleService, commentService, userService, helper.NewValidator())
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Identity: identityService,
		Auth:     handlers.NewAuthHandler(authService, userService),
		GraphQL:  handlers.NewGraphQLHandler(schema, cfg.RequestTimeout),
		Logger:   logger,

		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "store", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "postgres":
		db, err := config.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := repositories.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repositories.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
