package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const rootLongDesc = `Chorus talks to several incompatible AI vendor streaming APIs
through one normalized chunk contract.

Provider credentials come from a chorus.yaml config file, CHORUS_*
environment variables, or a .env file in the working directory.

Examples:
  chorus chat -m "What is the capital of Burkina Faso?"
  chorus chat -p gemini -m "Summarize the Go memory model"
  chorus providers`

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "chorus",
		Short:         "One chat client for many AI vendor streaming APIs",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				configureLogging(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to a chorus config file")

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newProvidersCmd())
	return cmd
}

// configureLogging installs zerolog's console writer as the slog backend.
// The whole library logs through slog, so this is the only logging seam.
func configureLogging(level slog.Level) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	logger := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(logger, &zeroslog.HandlerOptions{Level: level}),
	))
}
