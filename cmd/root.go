/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fitlog/apiserver/config"
	"github.com/fitlog/apiserver/internal/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Exercise tracker API server",
	Long: `fitlog registers users and records the exercises they log.

	fitlog server         start the HTTP API
	fitlog migrate up     apply database migrations
	fitlog events tail    print exercise events from the configured broker
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}

	log, err := logger.NewLogger(logger.ParseEnvironment(cfg.Log.Mode), cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}
