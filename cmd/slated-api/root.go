package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slated-api",
	Short: "Slated API server",
	Long:  `A REST API server for the Slated invite-only event scheduler.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Local development convenience; missing .env files are fine.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}
