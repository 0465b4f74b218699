package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/logger"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsinsight",
		Short: "Hindi news post generator",
		Long: `Generates Hindi news posts with AI, previews them in five themes and
three layouts, and exports them as high resolution PNG images.`,
		PersistentPreRunE: initializeApp,
		SilenceUsage:      true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(diagnosticsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	// Load and validate configuration
	cfg = config.Load()

	return logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: logOutput(cmd),
		Pretty: cfg.LogPretty,
	})
}

// logOutput keeps stdout clean for commands that print results.
func logOutput(cmd *cobra.Command) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if cmd.Name() == "serve" {
		return "stdout"
	}
	return "stderr"
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
