package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/airqd/airqd/internal/api/http"
	"github.com/airqd/airqd/internal/config"
	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/internal/provider"
	"github.com/airqd/airqd/internal/read"
	"github.com/airqd/airqd/internal/repository"
	"github.com/airqd/airqd/internal/scheduler"
)

var rootCmd = &cobra.Command{
	Use:   "airqd",
	Short: "Air quality refresh-and-cache daemon",
	Long:  "airqd periodically pulls air quality readings for configured locations, caches them in MongoDB, and serves only cached data to readers.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run a single refresh cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefreshOnce()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads config and wires the storage-backed components shared by
// both commands.
func bootstrap(ctx context.Context) (*config.Config, *repository.MongoRepository, *scheduler.Scheduler, func(), error) {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	client, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		if err := repository.Disconnect(context.Background(), client); err != nil {
			logger.Error("Error disconnecting MongoDB: %v", err)
		}
	}

	repo := repository.NewMongoRepository(client, cfg)
	if err := repo.EnsureIndexes(ctx); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}

	fetcher := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderToken)
	sched := scheduler.New(fetcher, repo, cfg.Locations, cfg.RefreshInterval, cfg.ShutdownGrace)

	return cfg, repo, sched, cleanup, nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, repo, sched, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	surface := read.NewSurface(repo)

	app := fiber.New(fiber.Config{
		AppName:               "airqd",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "airqd"})
	})

	httpapi.RegisterRoutes(app, surface)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped: %v", err)
		}
	}()

	if err := sched.Start(); err != nil {
		return err
	}

	logger.Info("Executing immediate startup refresh cycle.")
	go sched.RunCycle()

	<-ctx.Done()
	logger.Info("Received interrupt signal. Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during server shutdown: %v", err)
	}

	sched.Stop()
	logger.Info("Shutdown complete.")
	return nil
}

func runRefreshOnce() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _, sched, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// An interrupt mid-cycle goes through the same graceful path as the
	// daemon: finish in-flight writes within the grace period.
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	sched.RunCycle()
	return nil
}
