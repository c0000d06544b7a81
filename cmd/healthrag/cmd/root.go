// Package cmd provides the CLI commands for healthrag.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CloudAIX/healthcare-rag-system/internal/app"
	"github.com/CloudAIX/healthcare-rag-system/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the root command for the healthrag CLI.
func NewRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   "healthrag",
		Short: "Citation-grounded question answering over aged care standards",
		Long: `healthrag ingests aged care quality standards into a local vector store
and answers questions with page-level citations.

Typical workflow:
  healthrag download
  healthrag ingest
  healthrag ask "What does Standard 1 require?"`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to retrieval config YAML (default $RAG_CONFIG or "+config.DefaultFile+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newIngestCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newAskCmd(&opts))
	cmd.AddCommand(newDownloadCmd(&opts))

	return cmd
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFrom(o.configPath)
	}
	return config.Load()
}

// openApp loads configuration and wires the components. The caller closes
// the returned app.
func (o *globalOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, o.logger(cmd))
}
