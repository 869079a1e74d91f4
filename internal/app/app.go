// Package app assembles the deployment pipeline and HTTP server from a
// loaded configuration. Both the server binary and deployctl use it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proxy-deploy-backend/internal/config"
	"proxy-deploy-backend/internal/handler"
	"proxy-deploy-backend/internal/pkg/discovery"
	"proxy-deploy-backend/internal/pkg/logger"
	"proxy-deploy-backend/internal/pkg/metrics"
	"proxy-deploy-backend/internal/pkg/ssh"
	"proxy-deploy-backend/internal/pkg/tcpproxy"
	"proxy-deploy-backend/internal/router"
	"proxy-deploy-backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config        *config.Config
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
	SSHService    *service.SSHService
	DeployService *service.DeployService
}

func New(cfg *config.Config) (*App, error) {
	appLogger := logger.NewLogger(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	installer, err := tcpproxy.NewInstaller(cfg.Deploy.ProxyParams())
	if err != nil {
		return nil, fmt.Errorf("build install script: %w", err)
	}

	executor := ssh.NewClient(appLogger, ssh.Options{
		ConnectTimeout:    cfg.SSH.ConnectTimeout,
		KeepaliveInterval: cfg.SSH.KeepaliveInterval,
	})
	appMetrics := metrics.New()

	return &App{
		Config:     cfg,
		Logger:     appLogger,
		Metrics:    appMetrics,
		SSHService: service.NewSSHService(executor, appLogger),
		DeployService: service.NewDeployService(
			executor,
			discovery.NewMarkerExtractor(),
			installer,
			service.Discovery{Command: cfg.Deploy.DiscoveryCommand, Marker: cfg.Deploy.Marker},
			appLogger,
			appMetrics,
		),
	}, nil
}

// Engine returns the gin engine with middleware and all routes registered.
func (a *App) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.Config.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r,
		handler.NewSSHHandler(a.SSHService),
		handler.NewDeployHandler(a.DeployService),
		a.Metrics.Handler(),
	)
	return r
}

// Server wraps Engine in an http.Server. The write timeout has to cover a
// whole synchronous deployment.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Engine(),
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeout) * time.Second,
	}
}

// Run serves HTTP until ctx is done, then shuts the server down, letting
// in-flight requests finish within shutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := a.Server()
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Server starting", zap.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
