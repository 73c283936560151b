package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iredox10/kano-market-price/internal/adapters/appwrite"
	"github.com/iredox10/kano-market-price/internal/adapters/repository/mongodb"
	"github.com/iredox10/kano-market-price/internal/config"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/iredox10/kano-market-price/internal/handlers"
	"github.com/iredox10/kano-market-price/internal/middleware"
	"github.com/iredox10/kano-market-price/internal/services/approval"
	"github.com/iredox10/kano-market-price/internal/services/identity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg.Log)

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"port":    cfg.HTTP.Port,
	}).Info("Starting kano-market-price API")

	ctx := context.Background()
	stores, provider, closeBackend, err := connectBackend(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect backend: %v", err)
	}
	defer closeBackend()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	approvals := approval.NewService(stores, approval.Config{ShopOwnersGroup: cfg.Stores.ShopOwnersGroup},
		approval.WithLogger(logrus.StandardLogger()),
		approval.WithMetrics(approval.NewMetrics(registry)),
	)

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			case <-stopCleanup:
				return
			}
		}
	}()
	defer close(stopCleanup)

	gin.SetMode(cfg.HTTP.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logrus.StandardLogger()))
	router.Use(cors.New(corsConfig(cfg.HTTP.AllowedOrigins)))

	handlers.SetupRoutes(router, handlers.Dependencies{
		Approvals:      approvals,
		Identity:       provider,
		RateLimiter:    limiter,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("Server listening on :%s", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server stopped")
}

func configureLogging(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

// connectBackend builds the stores and identity provider for the configured backend.
// The returned func releases backend resources.
func connectBackend(ctx context.Context, cfg *config.Config) (domain.Stores, domain.IdentityProvider, func(), error) {
	switch cfg.Backend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		client, err := mongodb.Connect(connectCtx, cfg.Mongo.URI)
		if err != nil {
			return domain.Stores{}, nil, nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		cols := cfg.MongoCollections()
		if err := mongodb.EnsureIndexes(connectCtx, db, cols); err != nil {
			logrus.WithError(err).Warn("Failed to ensure MongoDB indexes")
		}

		accounts := mongodb.NewAccountRepository(db, cols.Accounts)
		stores := domain.Stores{
			Applications: mongodb.NewApplicationRepository(db, cols.Applications),
			Accounts:     accounts,
			Memberships:  mongodb.NewMembershipRepository(db, cols.Memberships),
			ShopOwners:   mongodb.NewShopOwnerRepository(db, cols.ShopOwners),
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logrus.WithError(err).Error("Failed to disconnect from MongoDB")
			}
		}
		logrus.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")
		return stores, identity.NewJWTProvider(cfg.Auth.JWTSecret, accounts), closeFn, nil

	case config.BackendAppwrite:
		client, err := appwrite.New(appwrite.Config{
			Endpoint:   cfg.Appwrite.Endpoint,
			ProjectID:  cfg.Appwrite.ProjectID,
			APIKey:     cfg.Appwrite.APIKey,
			DatabaseID: cfg.Appwrite.DatabaseID,
		})
		if err != nil {
			return domain.Stores{}, nil, nil, fmt.Errorf("create appwrite client: %w", err)
		}
		stores := client.Stores(appwrite.Collections{
			Applications: cfg.Stores.ApplicationsCollection,
			Accounts:     cfg.Stores.AccountsCollection,
			ShopOwners:   cfg.Stores.ShopOwnersCollection,
		})
		logrus.WithField("endpoint", cfg.Appwrite.Endpoint).Info("Using hosted backend")
		return stores, client.IdentityProvider(stores.Accounts), func() {}, nil
	}
	return domain.Stores{}, nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}
