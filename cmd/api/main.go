package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/skillhunter-backend/api/controllers"
	"github.com/angelmondragon/skillhunter-backend/api/routes"
	"github.com/angelmondragon/skillhunter-backend/internal/storefront"
	"github.com/angelmondragon/skillhunter-backend/pkg/auth/session"
	"github.com/angelmondragon/skillhunter-backend/pkg/config"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/authprovider"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/pgservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db"
	"github.com/angelmondragon/skillhunter-backend/pkg/instance"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
	"github.com/angelmondragon/skillhunter-backend/pkg/metrics"
	"github.com/angelmondragon/skillhunter-backend/pkg/migrate"
	"github.com/angelmondragon/skillhunter-backend/pkg/pubsub"
	"github.com/angelmondragon/skillhunter-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	ready := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	var notifier authprovider.ConfirmationNotifier
	if cfg.PubSub.Enabled() {
		var pubsubClient *pubsub.Client
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

		publisher := pubsubClient.Publisher(cfg.PubSub.ConfirmationTopic)
		defer publisher.Stop()

		if notifier, err = pubsub.NewConfirmationNotifier(publisher, logg); err != nil {
			return err
		}
		ready["pubsub"] = pubsubClient
	}

	provider, err := authprovider.NewProvider(authprovider.ProviderParams{
		DB:            dbClient,
		Sessions:      sessionManager,
		Confirmations: redisClient,
		Notifier:      notifier,
		JWT:           cfg.JWT,
		Password:      cfg.Password,
		Auth:          cfg.Auth,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	tables, err := pgservice.NewTables(dbClient.DB(), pgservice.WithTextSearchConfig(cfg.DataService.TextSearchConfig))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory, err := storefront.NewFactory(storefront.FactoryParams{
		Storage: storageFactory(cfg.LocalStore, redisClient, dbClient),
		Auth: func(store localstore.Store) dataservice.Auth {
			return provider.ForDevice(store)
		},
		Tables: tables,
		Instrument: dataservice.InstrumentOptions{
			Timeout: cfg.DataService.CallTimeout,
			Metrics: metrics.NewDataServiceMetrics(registry),
		},
		Logger: logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"driver":   dbClient.Dialect(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Storefront:  factory,
			Confirmer:   provider,
			RateLimiter: redisClient,
			Ready:       ready,
			Metrics:     metrics.NewHTTPMetrics(registry),
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// storageFactory picks where device items (session tokens, carts) persist.
func storageFactory(cfg config.LocalStoreConfig, redisClient *redis.Client, dbClient *db.Client) storefront.StorageFactory {
	if cfg.Backend == config.LocalStoreDB {
		return func(deviceID string) (localstore.Store, error) {
			return localstore.NewDB(dbClient.DB(), deviceID)
		}
	}
	return func(deviceID string) (localstore.Store, error) {
		return localstore.NewRedis(redisClient, cfg.Namespace, deviceID, cfg.TTL)
	}
}
