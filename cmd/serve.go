package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/headsync/internal/config"
	"github.com/conneroisu/headsync/internal/logging"
	"github.com/conneroisu/headsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the head synchronization server",
	Long: `Start the websocket server that connected pages use to keep their
document head synchronized with client-side navigation.

Examples:
  headsync serve                          # Serve with .headsync.yml settings
  headsync serve --port 9000              # Override the listen port
  headsync serve --title-suffix " - App"  # Append a suffix to every title`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8133, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("title-suffix", "", "Suffix appended to every derived title")
	serveCmd.Flags().Bool("title-case", false, "Apply title casing to derived titles")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("title.suffix", serveCmd.Flags().Lookup("title-suffix"))
	_ = viper.BindPFlag("title.title_case", serveCmd.Flags().Lookup("title-case"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)

	// Hot-reload title options when the config file changes.
	if cfgPath := viper.ConfigFileUsed(); cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, logger)
		if err != nil {
			logger.Warn(ctx, err, "config watching unavailable")
		} else {
			watcher.AddHandler(func(reloaded *config.Config) {
				srv.UpdateTitleConfig(reloaded.Title)
			})
			if err := watcher.Start(ctx); err != nil {
				logger.Warn(ctx, err, "config watching unavailable")
			} else {
				defer func() { _ = watcher.Stop() }()
			}
		}
	}

	return srv.Start(ctx)
}

func newLogger(cfg *config.Config) logging.Logger {
	format := "text"
	if cfg.LogJSON {
		format = "json"
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: format,
		Output: os.Stderr,
	})
}
