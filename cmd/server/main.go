package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/commlog-server/internal/app"
	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/log"
	"github.com/vovakirdan/commlog-server/internal/service/records"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serve := newServeCmd(opts)
	root := &cobra.Command{
		Use:          "commlog-server",
		Short:        "Communication log and dashboard server",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newMigrateCmd(opts), newStatsCmd(opts))
	return root
}

// load resolves configuration and builds the logger.
func (o *rootOptions) load() (*config.Config, *zerolog.Logger, error) {
	bootLogger := log.New("info", log.FormatConsole)

	cfg, path, err := config.Load(bootLogger, o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config", path).Str("driver", cfg.Database.Driver).Msg("configuration loaded")
	return &cfg, logger, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize app")
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting commlog server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			logger.Info().Str("driver", cfg.Database.Driver).Msg("schema up to date")
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print record counts per kind as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := records.New(st).Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}

			out, err := json.Marshal(map[string]int64{
				"emails":   stats.Emails,
				"sms":      stats.SMS,
				"whatsapp": stats.WhatsApp,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
