package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/stockmaster/internal/ai"
	"github.com/xelth-com/stockmaster/internal/config"
	"github.com/xelth-com/stockmaster/internal/database"
	"github.com/xelth-com/stockmaster/internal/handlers"
	"github.com/xelth-com/stockmaster/internal/jobs"
	"github.com/xelth-com/stockmaster/internal/ledger"
	"github.com/xelth-com/stockmaster/internal/live"
	"github.com/xelth-com/stockmaster/internal/logger"
	"github.com/xelth-com/stockmaster/internal/middleware"
	"github.com/xelth-com/stockmaster/internal/store"
	"github.com/xelth-com/stockmaster/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		zap.S().Fatalf("Failed to build logger: %v", err)
	}
	defer l.Sync()
	log := zap.S().Named("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Open the store
	var (
		st store.Store
		db *database.DB
	)
	switch cfg.Store {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		st = store.NewMemory()
	default:
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Migrate(); err != nil {
			log.Fatalf("Schema migration failed: %v", err)
		}
		st = store.NewGorm(db.DB)
	}

	// 3. Mirror the realtime tree before serving reads
	mirror := live.NewMirror()
	if err := mirror.Run(ctx, st); err != nil {
		log.Fatalf("Failed to subscribe to store: %v", err)
	}
	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := mirror.WaitLoaded(loadCtx); err != nil {
		log.Fatalf("Initial load did not complete: %v", err)
	}
	loadCancel()
	log.Infow("store loaded", "items", len(mirror.Items()), "warehouses", len(mirror.Warehouses()))

	loc := cfg.Location()
	mutator := ledger.NewMutator(st, mirror, ledger.WithLocation(loc))

	// 4. Assistant; without a key every chat degrades to the apology
	var completer ai.Completer
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			log.Warnw("assistant disabled", "error", err)
		} else {
			defer gemini.Close()
			completer = gemini
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, assistant disabled")
	}
	assistant := ai.NewAssistant(completer, cfg.AI.Timeout)

	// 5. Realtime hub and HTTP router
	hub := websocket.NewHub(st)
	go hub.Run(ctx)

	router := handlers.NewRouter(handlers.Deps{
		Store:     st,
		Mirror:    mirror,
		Mutator:   mutator,
		Assistant: assistant,
		Hub:       hub,
		Auth:      middleware.NewAuthenticator(cfg.JWTSecret),
		Location:  loc,
	})

	// 6. Low-stock digest
	if cfg.LowStockCron != "" {
		sched, err := jobs.NewScheduler(loc, cfg.LowStockCron, jobs.NewLowStockDigest(mirror, mutator))
		if err != nil {
			log.Fatalf("Invalid LOW_STOCK_CRON: %v", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Infow("low stock digest scheduled", "spec", cfg.LowStockCron)
	}

	// 7. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infow("server starting", "port", cfg.Port, "store", cfg.Store, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Infow("shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	// stops the hub and the mirror subscriptions
	cancel()

	if db != nil {
		if err := db.Close(); err != nil {
			log.Errorw("database close error", "error", err)
		}
	}
	log.Info("shutdown complete")
}
