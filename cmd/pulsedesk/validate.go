package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pulsedesk/pulsedesk/internal/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the Pulsedesk configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	_, _ = green.Fprintf(os.Stdout, "Configuration is valid: %s\n", configPath)

	fmt.Fprintf(os.Stdout, "  storage:  %s\n", cfg.Storage.Type)
	fmt.Fprintf(os.Stdout, "  api:      %s:%d\n", cfg.Server.BindAddress, cfg.Server.APIPort)
	fmt.Fprintf(os.Stdout, "  metrics:  %s:%d\n", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	fmt.Fprintf(os.Stdout, "  logging:  %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
