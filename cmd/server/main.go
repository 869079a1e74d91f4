package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proxy-deploy-backend/internal/app"
	"proxy-deploy-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	gin.SetMode(gin.ReleaseMode)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = application.Run(ctx)
	stop()
	if err != nil {
		application.Logger.Error("Server stopped", zap.Error(err))
		application.Logger.Sync()
		os.Exit(1)
	}
	application.Logger.Sync()
}
