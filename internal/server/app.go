// Package server initializes and runs the credauth server: it loads key
// material, connects storage, applies migrations, and runs the HTTP API
// and the gRPC health listener until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/auth"
	"github.com/dmitrijs2005/credauth/internal/server/cache"
	"github.com/dmitrijs2005/credauth/internal/server/config"
	"github.com/dmitrijs2005/credauth/internal/server/keys"
	"github.com/dmitrijs2005/credauth/internal/server/metrics"
	"github.com/dmitrijs2005/credauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credauth/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/credauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/credauth/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	redis      *redis.Client
	httpServer *hs.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	material, err := keys.Load(ctx, c.PrivateKeySource, c.PublicKeySource, keys.S3Options{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("key material: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	app := &App{config: c, logger: logger, db: db}

	var locCache services.LocationsCache
	if c.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		locCache = cache.NewLocations(client, c.LocationsCacheTTL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	issuer := auth.NewIssuer(material.Private, c.TokenIssuer, c.TokenValidity)
	verifier := auth.NewVerifier(material.Public, c.TokenIssuer)

	authService := services.NewAuthService(db, rm, issuer, m, logger)
	locationService := services.NewLocationService(db, rm, locCache, logger)

	router := hs.NewRouter(hs.Deps{
		Auth:           authService,
		Locations:      locationService,
		Verifier:       verifier,
		Health:         db,
		Observer:       m,
		MetricsHandler: metrics.Handler(registry),
		Logger:         logger,
	})

	app.httpServer = hs.NewServer(c.HTTPAddr, router, logger)
	app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, logger, db)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
