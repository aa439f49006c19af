package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ecoclassify/ecoclassify/internal/backend"
	"github.com/ecoclassify/ecoclassify/internal/backend/metrics"
	"github.com/ecoclassify/ecoclassify/internal/backend/upload"
	"github.com/ecoclassify/ecoclassify/internal/common"
	"github.com/ecoclassify/ecoclassify/internal/core"
	"github.com/ecoclassify/ecoclassify/internal/frontend"
)

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "ecoclassify"))

	// Load configuration
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		log.Printf("failed to load config from %s: %v", configPath, err)
		os.Exit(1)
	}

	serviceMetrics := metrics.New()

	coreService, err := core.NewCoreService(config, serviceMetrics)
	if err != nil {
		// No point serving requests without the store or the predictor.
		log.Printf("failed to initialize core service: %v", err)
		os.Exit(1)
	}

	server := defineServer(config)
	server.Use(serviceMetrics.Middleware())
	server.GET("/metrics", echo.WrapHandler(serviceMetrics.Handler()))

	apiService := backend.NewAPIService(config, coreService)
	apiService.SetRoutes(server)
	frontendService := frontend.NewFrontendService(config)
	frontendService.SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if err := coreService.Close(); err != nil {
		log.Printf("core service close error: %v", err)
	}
}

func defineServer(config *core.ServiceConfig) *echo.Echo {
	e := echo.New()

	// Reject oversized bodies while streaming so they never land on disk;
	// the headroom covers multipart framing around the image field.
	maxUploadBytes := config.Upload.MaxSizeBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = upload.DefaultMaxSizeBytes
	}
	e.Use(middleware.BodyLimit(fmt.Sprintf("%d", maxUploadBytes+64<<10)))

	// Configure request logger to skip the "/" liveness probe
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogHost:      true,
		LogUserAgent: true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Error("request",
					"method", v.Method,
					"uri", v.URI,
					"route", v.RoutePath,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error,
					"remote_ip", v.RemoteIP,
					"host", v.Host,
					"user_agent", v.UserAgent,
				)
			} else {
				slog.Info("request",
					"method", v.Method,
					"uri", v.URI,
					"route", v.RoutePath,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"remote_ip", v.RemoteIP,
					"host", v.Host,
					"user_agent", v.UserAgent,
				)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}
