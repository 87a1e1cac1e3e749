// Command scout finds leads and support requests in Discord transcripts.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scout/internal/config"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "scout",
		Short: "Discord lead and support classifier",
		Long: "Scout pre-filters Discord transcripts, classifies the surviving messages " +
			"with language models and writes leads, non-leads and failures to separate files.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = setupLogging(cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		newRunCmd(a),
		newFilterCmd(a),
		newBlacklistCmd(a),
		newServeCmd(a),
	)
	return root
}

// setupLogging writes JSON logs to stderr so command output on stdout stays
// machine readable.
func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
