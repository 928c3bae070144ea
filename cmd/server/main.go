package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"drivemate/internal/app"
	"drivemate/internal/config"
	"drivemate/internal/fare"
	"drivemate/internal/handler"
	"drivemate/internal/logger"
	internalRedis "drivemate/internal/redis"
	"drivemate/internal/repository"
	"drivemate/internal/repository/memory"
	"drivemate/internal/repository/postgres"
	"drivemate/internal/routing"
	"drivemate/internal/service"
)

func main() {
	cfg, cfgErr := config.Load()
	log := logger.New(cfg.Log)
	if cfgErr != nil {
		log.WithError(cfgErr).Warn("config file not loaded, using environment and defaults")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes first so the database and redis clients get instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Error("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	store, db, err := openStore(ctx, cfg, nrApp, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	if db != nil {
		defer db.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisClient.Close()
		log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
	}

	server, err := wireServer(store, redisClient, nrApp, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to wire server")
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}

	log.Info("server exited")
}

// openStore returns the configured repository store. db is nil for the
// in-memory store.
func openStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log logrus.FieldLogger) (repository.Store, *sql.DB, error) {
	if cfg.Database.Driver != config.StoragePostgres {
		store := memory.NewStore()
		if cfg.Database.SeedDemo {
			app.SeedDemo(store)
			log.Info("in-memory store seeded with demo fleet")
		}
		log.Warn("using in-memory storage, data is lost on restart")
		return store, nil, nil
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("database migrations applied")
	}
	log.WithField("host", cfg.Database.Host).Info("connected to PostgreSQL")
	return postgres.NewStore(db), db, nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(store repository.Store, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) (*http.Server, error) {
	loc, err := cfg.Fare.Location()
	if err != nil {
		return nil, err
	}
	calc := fare.NewCalculator(loc)

	var router routing.Provider = routing.HaversineProvider{}
	if cfg.Routing.OSRMEnabled {
		router = routing.NewOSRMProvider(cfg.Routing.OSRMBaseURL, cfg.Routing.Timeout, log)
	}

	// Leave the interfaces untyped nil without redis so the service skips them.
	var (
		lockStore  internalRedis.LockStoreInterface
		cacheStore internalRedis.CandidateCacheInterface
	)
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
		cacheStore = internalRedis.NewCacheStore(redisClient)
	}

	rideService := service.NewRideService(store, log)
	matchingService := service.NewMatchingService(store, lockStore, cacheStore, service.MatchingOptions{
		DriverLockTTL:     cfg.Matching.DriverLockTTL,
		CandidateCacheTTL: cfg.Matching.CandidateCacheTTL,
	}, log)
	tripService := service.NewTripService(store, router, calc, log)
	paymentService := service.NewPaymentService(store, calc, service.NewSimulatedPSP(), log)
	receiptService := service.NewReceiptService(store)
	ratingService := service.NewRatingService(store, log)
	driverService := service.NewDriverService(store, log)

	rideHandler := handler.NewRideHandler(rideService, matchingService, ratingService)
	driverHandler := handler.NewDriverHandler(driverService, matchingService, paymentService, ratingService)
	tripHandler := handler.NewTripHandler(tripService)
	paymentHandler := handler.NewPaymentHandler(paymentService, receiptService)

	engine := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		TripHandler:    tripHandler,
		PaymentHandler: paymentHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
