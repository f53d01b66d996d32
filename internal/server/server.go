package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/blueprint"
	"github.com/adconfigurator/api/internal/api/entity"
	"github.com/adconfigurator/api/internal/api/instance"
	settingsapi "github.com/adconfigurator/api/internal/api/settings"
	uploadapi "github.com/adconfigurator/api/internal/api/upload"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/apps"
	blueprintrepo "github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/cache"
	"github.com/adconfigurator/api/pkg/config"
	"github.com/adconfigurator/api/pkg/homeassistant"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/settings"
)

// VersionInfo contains build version information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// Server represents the API server
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	instanceID  string
	versionInfo *VersionInfo
	haCache     cache.Cache
}

// New creates a new API server instance and registers every route
func New(
	e *echo.Echo,
	cfg *config.Config,
	instanceID string, // reported in the X-Configurator-Instance header
	versionInfo *VersionInfo,
) *Server {
	srv := &Server{
		echo:        e,
		config:      cfg,
		instanceID:  instanceID,
		versionInfo: versionInfo,
		haCache:     cache.NewHomeAssistantCache(cfg.HomeAssistant.CacheTTL),
	}

	resolver := settings.NewResolver(settings.Options{
		AddonMode:       cfg.Addon.Enabled,
		SupervisorToken: cfg.Addon.SupervisorToken,
		AppsPath:        cfg.Blueprints.AppsPath,
		OptionsFile:     cfg.Addon.OptionsFile,
	})
	if resolver.AddonMode() {
		logging.Logger.Info("Running as Home Assistant add-on")
	}

	repo := blueprintrepo.NewRepository(cfg.Blueprints.FallbackDir)
	store := apps.NewStore(repo)
	clients := homeassistant.NewFactory(srv.haCache, cfg.HomeAssistant.CacheTTL)

	blueprintHandler := blueprint.NewHandler(repo)
	instanceHandler := instance.NewHandler(store, repo)
	entityHandler := entity.NewHandler(clients)
	settingsHandler := settingsapi.NewHandler(resolver.AddonMode())
	uploadHandler := uploadapi.NewHandler(repo, cfg.Upload.MaxBytes)

	api := e.Group("/api")
	api.Use(middleware.VersionMiddleware(versionInfo.Version))
	api.Use(middleware.SettingsMiddleware(resolver))

	blueprint.RegisterRoutes(api.Group("/blueprints"), blueprintHandler)
	instance.RegisterRoutes(api.Group("/instances"), instanceHandler)
	settingsapi.RegisterRoutes(api.Group("/settings"), settingsHandler)
	entity.RegisterRoutes(api, entityHandler)
	uploadapi.RegisterRoutes(api, uploadHandler)

	api.GET("/version", srv.handleVersion)
	api.GET("/health", srv.handleHealth)

	// Health check for probes and the add-on watchdog
	e.GET("/health", srv.handleHealth)

	return srv
}

// handleHealth handles the health check endpoint
// Returns JSON with instance info when ?info=true is specified
func (s *Server) handleHealth(c echo.Context) error {
	if c.QueryParam("info") == "true" {
		return c.JSON(http.StatusOK, map[string]string{
			"instance_id":  s.instanceID,
			"fallback_dir": s.config.Blueprints.FallbackDir,
		})
	}
	return c.NoContent(http.StatusOK)
}

// handleVersion handles the version endpoint
func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, s.versionInfo)
}

// Start starts the API server
func (s *Server) Start() error {
	addr := s.config.Address()
	logging.Logger.Info("Starting server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and releases the response cache
func (s *Server) Shutdown(ctx context.Context) error {
	if closer, ok := s.haCache.(interface{ Close() }); ok {
		closer.Close()
	}
	return s.echo.Shutdown(ctx)
}
