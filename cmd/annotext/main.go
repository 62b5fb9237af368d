package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside of development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
