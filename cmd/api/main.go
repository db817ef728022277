package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	apimodel "finmodel/pkg/api/model"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/store"
)

// serverConfig is the shape of config/server.yaml. Every field has a
// working default, so the server starts with no config file at all.
type serverConfig struct {
	Addr           string   `yaml:"addr"`
	OutputDir      string   `yaml:"output_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
}

func loadServerConfig(path string) (serverConfig, error) {
	cfg := serverConfig{
		Addr:           ":8080",
		OutputDir:      "output",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		LogLevel:       "info",
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func initializeLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "", "info":
		zapLevel = zapcore.InfoLevel
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

func main() {
	godotenv.Load()

	configPath := flag.String("config", "config/server.yaml", "path to server configuration")
	flag.Parse()

	cfg, err := loadServerConfig(*configPath)
	if err != nil {
		fmt.Printf("{\"level\": \"fatal\", \"msg\": \"failed to load server configuration\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	logger, err := initializeLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("{\"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Runs persist to Postgres when DATABASE_URL is set, otherwise to
	// process memory; workbook files land under the output directory
	// either way.
	var repo store.RunRepository
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			logger.Fatal("database init failed", zap.Error(err))
		}
		defer store.Close()
		repo = store.NewRunRepo(store.GetPool())
		logger.Info("run store ready", zap.String("backend", "postgres"))
	} else {
		repo = store.NewMemoryRunRepo()
		logger.Warn("DATABASE_URL not set, run records are in-memory only")
	}

	orch := pipeline.NewOrchestrator(cfg.OutputDir, logger)
	orch.SetRepository(repo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	handler := apimodel.NewHandler(logger, orch, repo)
	r.Route("/api/models", handler.MountRoutes)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("api server listening",
			zap.String("addr", cfg.Addr),
			zap.String("output_dir", cfg.OutputDir),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}
