package main

import (
	"github.com/spf13/cobra"

	"provisioning-portal/internal/config"
	"provisioning-portal/internal/logger"
)

func main() {
	var logLevel string
	var cfg config.Config

	root := &cobra.Command{
		Use:           "portal",
		Short:         "Trigger provisioning and deprovisioning pipelines for named systems",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return logger.Configure(cfg.LogLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides PORTAL_LOG_LEVEL)")

	root.AddCommand(serveCmd(&cfg))
	root.AddCommand(triggerCmd(&cfg, "provision"))
	root.AddCommand(triggerCmd(&cfg, "deprovision"))
	root.AddCommand(catalogCmd(&cfg))

	if err := root.Execute(); err != nil {
		logger.Fatal("error: %v", err)
	}
}
