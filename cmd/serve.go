package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rse-auditor/core/auditor"
	"rse-auditor/core/catalog"
	"rse-auditor/core/config"
	"rse-auditor/core/database"
	"rse-auditor/core/loader"
	"rse-auditor/core/logger"
	"rse-auditor/core/middleware/auth"
	"rse-auditor/core/middleware/rayid"

	"rse-auditor/feature/audit"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auditor server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the catalog database (optional). Without it runs
		// still produce result files, they just cannot declare anything.
		var cat catalog.Catalog
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional catalog database connection failed", zap.Error(err))
		} else {
			store := catalog.NewStore(db)
			if err := store.Migrate(); err != nil {
				logg.Warn("Catalog schema migration failed, declarations disabled", zap.Error(err))
			} else {
				cat = store
				logg.Info("Connected to replica catalog database")
			}
		}

		// 4. Initialize dump source and auditor
		source, err := newDumpSource(context.Background(), cfg)
		if err != nil {
			logg.Fatal("Failed to create dump source", zap.Error(err))
		}
		aud := auditor.New(source, cat, cfg.Auditor, logg)

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 6. Load Features
		mgr := loader.NewManager()
		mgr.Register(audit.NewFeature(aud, cfg.Auditor.ResultsDir, logg))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
