package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carbontrace",
	Short: "Host power and carbon telemetry agent",
	Long:  "carbontrace samples host and container power draw, derives energy and carbon figures, and publishes them to CSV and a Prometheus endpoint.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(processesCmd)
}
