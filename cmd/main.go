package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/agents"
	"whatsfordinner/internal/api"
	"whatsfordinner/internal/config"
	"whatsfordinner/internal/database"
	"whatsfordinner/internal/kitchen"
	"whatsfordinner/internal/models/providers"
	"whatsfordinner/internal/monitoring"
	"whatsfordinner/internal/session"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides server.port)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides metrics.port)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.Metrics.Port = *metricsPort
	}

	log := newLogger(cfg)
	gin.SetMode(gin.ReleaseMode)

	// Initialize LLM
	model, err := providers.NewModel(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}
	completer := providers.NewLLMClient(model, cfg.LLM.Model, log.WithField("component", "llm"))

	// Initialize session storage
	store, db, err := initializeStore(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	metrics := monitoring.NewMetrics()
	monitor := monitoring.NewMonitor()

	chef := agents.NewChef(completer, cfg.Kitchen.RecipeCount, metrics, monitor, log.WithField("component", "chef"))
	controller := kitchen.NewController(store, chef, metrics, monitor, cfg.Kitchen.FridgeCapacity, log.WithField("component", "kitchen"))
	kitchenAPI := api.NewKitchenAPI(controller, api.NewTokenIssuer(cfg.Server.SessionSecret), monitor, log)

	if purger, ok := store.(*database.SessionStore); ok {
		go purgeSessions(ctx, purger, cfg.Server.SessionTTL.Duration, log)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = newMetricsServer(cfg.Metrics, metrics)
		go func() {
			log.Infof("Starting metrics server on port %d", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: kitchenAPI.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("API server shutdown error: %v", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Errorf("Metrics server shutdown error: %v", err)
			}
		}

		cancel()
	}()

	log.WithFields(logrus.Fields{
		"provider":     cfg.LLM.Provider,
		"model":        completer.ModelID(),
		"recipe_count": chef.RecipeCount(),
		"storage":      cfg.Storage.Driver,
	}).Infof("Starting API server on port %d", cfg.Server.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("API server error: %v", err)
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func initializeStore(cfg *config.Config, log logrus.FieldLogger) (session.Store, *gorm.DB, error) {
	ttl := cfg.Server.SessionTTL.Duration
	storeLog := log.WithField("component", "store")

	if cfg.Storage.Driver == config.DriverMemory {
		return session.NewMemoryStore(ttl, storeLog), nil, nil
	}

	db, err := database.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	return database.NewSessionStore(db, ttl, storeLog), db, nil
}

// purgeSessions removes idle sessions from the database in the background.
func purgeSessions(ctx context.Context, store *database.SessionStore, ttl time.Duration, log logrus.FieldLogger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				log.WithField("purged", n).Info("Purged expired sessions")
			}
		}
	}
}

func newMetricsServer(cfg config.MetricsConfig, metrics *monitoring.Metrics) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.Path, gin.WrapH(metrics.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: metricsRouter,
	}
}
