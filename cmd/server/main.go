package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"perfume-backoffice/internal/api"
	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/config"
	"perfume-backoffice/internal/database"
	"perfume-backoffice/internal/jobs"
	"perfume-backoffice/internal/logging"
	"perfume-backoffice/internal/service"
	"perfume-backoffice/internal/shell"
	"perfume-backoffice/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger := logging.Init(cfg)
	defer logger.Sync()

	st := openStore(cfg)

	deps := service.Deps{
		Store:   st,
		Cache:   cache.NewClient(),
		TTL:     cfg.CacheTTL,
		Timeout: cfg.RemoteTimeout,
	}
	if cfg.RedisURL != "" {
		rdb, err := cache.ConnectRedis(cfg)
		if err != nil {
			zap.S().Warnf("redis unavailable, caching in process only: %v", err)
		} else {
			defer rdb.Close()
			deps.Mirror = cache.NewRedisMirror(rdb)
			zap.S().Infof("redis cache mirror connected: %s", cfg.RedisURL)
		}
	}

	customers := service.NewCustomerService(deps)
	products := service.NewProductService(deps)
	quantities := service.NewQuantityService(deps)
	orders := service.NewOrderService(deps, customers, products, quantities)

	scheduler := jobs.NewScheduler(deps.Cache)
	if err := scheduler.AddRefresh(cfg.CacheRefreshSpec); err != nil {
		zap.S().Fatalf("scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api.Register(app.Group("/api"), cfg, api.Services{
		Customers:  customers,
		Products:   products,
		Quantities: quantities,
		Orders:     orders,
		Nav:        shell.NewNavigation(),
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		zap.S().Info("shutting down")
		_ = app.Shutdown()
	}()

	zap.S().Infof("server listening on port %s (store: %s)", cfg.HTTPPort, cfg.StoreDriver)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		zap.S().Fatal(err)
	}
}

func openStore(cfg *config.Config) store.Store {
	switch cfg.StoreDriver {
	case "memory":
		mem := store.NewMemoryStore()
		if err := mem.Seed(store.TableQuantities, store.DefaultQuantities()...); err != nil {
			zap.S().Fatalf("seed memory store: %v", err)
		}
		zap.S().Warn("using the in-memory store, data is lost on restart")
		return mem
	case "postgres":
		database.Init(cfg)
		return store.NewPostgresStore(database.DB)
	default:
		zap.S().Fatalf("unknown STORE_DRIVER %q (want postgres or memory)", cfg.StoreDriver)
		return nil
	}
}
