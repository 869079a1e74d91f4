// Package cli implements the deployctl commands.
package cli

import (
	"github.com/spf13/cobra"

	"proxy-deploy-backend/internal/app"
	"proxy-deploy-backend/internal/config"
	"proxy-deploy-backend/internal/handler"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "deployctl",
		Short:         "Deploy the TCP proxy onto the database VM of a cluster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewDeployCommand(loadDeployer))
	rootCmd.AddCommand(NewServeCommand())
	return rootCmd
}

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func loadDeployer() (handler.Deployer, error) {
	a, err := loadApp()
	if err != nil {
		return nil, err
	}
	return a.DeployService, nil
}
