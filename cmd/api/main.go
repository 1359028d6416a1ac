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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/retailstock-backend/api/routes"
	"github.com/angelmondragon/retailstock-backend/internal/catalog"
	"github.com/angelmondragon/retailstock-backend/internal/deliveries"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/internal/orders"
	"github.com/angelmondragon/retailstock-backend/internal/restock"
	"github.com/angelmondragon/retailstock-backend/internal/sales"
	"github.com/angelmondragon/retailstock-backend/pkg/config"
	"github.com/angelmondragon/retailstock-backend/pkg/db"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	"github.com/angelmondragon/retailstock-backend/pkg/metrics"
	"github.com/angelmondragon/retailstock-backend/pkg/migrate"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox"
	"github.com/angelmondragon/retailstock-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id, err := os.Hostname()
	if err != nil || id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, promhttp.Handler(), svcs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(prometheus.DefaultRegisterer)

	conn := dbClient.DB()
	ledger := inventory.NewLedger(inventory.NewRepository(conn), fulfillmentMetrics)
	catalogRepo := catalog.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	ordersRepo := orders.NewRepository(conn)
	deliveriesRepo := deliveries.NewRepository(conn)

	inventorySvc, err := inventory.NewService(ledger, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	salesSvc, err := sales.NewService(sales.NewRepository(conn), ledger, catalogRepo, dbClient, outboxSvc, fulfillmentMetrics, logg, cfg.Returns)
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(ordersRepo, ledger, catalogRepo, salesSvc, dbClient, outboxSvc, fulfillmentMetrics, logg, cfg.Fulfillment)
	if err != nil {
		return routes.Services{}, err
	}
	deliveriesSvc, err := deliveries.NewService(deliveriesRepo, ledger, catalogRepo, dbClient, outboxSvc, fulfillmentMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	restockSvc, err := restock.NewService(ordersRepo, deliveriesRepo, ledger, catalogRepo, deliveriesSvc, cfg.Restock, fulfillmentMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Orders:     ordersSvc,
		Deliveries: deliveriesSvc,
		Inventory:  inventorySvc,
		Sales:      salesSvc,
		Restock:    restockSvc,
	}, nil
}
