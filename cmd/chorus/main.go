// Command chorus is a demo client for the provider layer: it loads
// declarative provider configuration and streams chat completions from any
// configured vendor to stdout.
package main

import (
	"log/slog"
	"os"

	// Load API keys from a .env in the working directory.
	_ "github.com/joho/godotenv/autoload"
)

func init() {
	configureLogging(slog.LevelWarn)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
