package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	internalMiddleware "github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/internal/server"
	"github.com/adconfigurator/api/pkg/config"
	"github.com/adconfigurator/api/pkg/logging"
	pkgServer "github.com/adconfigurator/api/pkg/server"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildTime=..."
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config-path", "config.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env is normal outside development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() { _ = logging.Logger.Sync() }()
	logging.Logger.Info("Structured logging initialized",
		zap.String("level", cfg.Logging.Level),
		zap.String("format", cfg.Logging.Format))

	instanceID, err := pkgServer.GetOrCreateInstanceID(cfg.Server.InstanceIDFile)
	if err != nil {
		logging.Logger.Fatal("Failed to resolve instance ID", zap.Error(err))
	}
	logging.Logger.Info("Configuration loaded",
		zap.String("path", configPath),
		zap.String("instance", instanceID),
		zap.String("fallback_dir", cfg.Blueprints.FallbackDir),
		zap.Bool("addon", cfg.Addon.Enabled || cfg.Addon.SupervisorToken != ""))

	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewValidator()

	e.Use(internalMiddleware.RequestIDMiddleware())
	e.Use(internalMiddleware.LoggerMiddleware())
	e.Use(internalMiddleware.RecoverMiddleware())
	e.Use(internalMiddleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(internalMiddleware.InstanceIDMiddleware(instanceID))

	srv := server.New(e, cfg, instanceID, &server.VersionInfo{
		Version:   version,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	})
	logging.Logger.Info("Server initialized")

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
