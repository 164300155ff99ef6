package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "athlete-subscriptions",
	Short: "Athlete subscriptions service",
	Long:  "Manages athlete subscriptions and validates their references against the user and catalog services.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
