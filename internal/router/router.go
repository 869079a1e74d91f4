package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proxy-deploy-backend/internal/handler"
)

func RegisterRoutes(r *gin.Engine, sshHandler *handler.SSHHandler, deployHandler *handler.DeployHandler, metrics http.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics))

	api := r.Group("/api")
	{
		ssh := api.Group("/ssh")
		{
			ssh.POST("/test", sshHandler.TestConnection)
		}

		api.POST("/deploy", deployHandler.Deploy)
	}
}
