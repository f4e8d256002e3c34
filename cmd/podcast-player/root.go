package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/csams/podcast-player/internal/config"
	"github.com/csams/podcast-player/internal/feed"
	"github.com/csams/podcast-player/internal/logging"
	"github.com/csams/podcast-player/internal/models"
	"github.com/csams/podcast-player/internal/player"
	"github.com/csams/podcast-player/internal/ui"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.PersistentFlags().StringP("config", "C", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log", false, "Write a log file")

	rootCmd.Flags().StringP("feed", "f", "", "RSS feed URL to load episodes from")
	rootCmd.Flags().StringP("playlist", "p", "", "YAML playlist file to load episodes from")
	rootCmd.MarkFlagsMutuallyExclusive("feed", "playlist")
	lo.Must0(rootCmd.MarkFlagFilename("playlist", "yaml", "yml"))
	lo.Must0(rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml"))

	rootCmd.Flags().Int("seek-step", 0, "Seconds moved by the seek keys")
	rootCmd.Flags().String("mpv", "", "Path to the mpv executable")
	rootCmd.Flags().Bool("no-autoplay", false, "Load episodes paused")

	rootCmd.AddCommand(exportCmd)
}

var rootCmd = &cobra.Command{
	Use:           config.AppName,
	Short:         "A terminal podcast player",
	Long:          "Play podcast episodes from an RSS feed or a YAML playlist through mpv.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		if lo.Must(cmd.Flags().GetBool("no-autoplay")) {
			cfg.Autoplay = false
		}

		playlist, err := loadPlaylist(cmd.Context(), cmd, cfg, logger)
		if err != nil {
			return err
		}

		store := player.NewStore()
		media := player.NewMPV(
			player.WithBinary(cfg.MPVPath),
			player.WithSocketDir(cfg.SocketDir),
			player.WithLogger(logger),
		)

		app := ui.NewApp(store, media, ui.Options{
			Playlist: playlist,
			SeekStep: cfg.SeekStep,
			Autoplay: cfg.Autoplay,
			Logger:   logger,

			SearchMinScore: mo.Some(cfg.SearchScore),
		})
		return app.Run()
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}

// setup resolves configuration from defaults, file, environment and flags, then builds the logger
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, io.Closer, error) {
	v := config.New(lo.Must(cmd.Flags().GetString("config")))
	bindFlags(cmd, v)

	cfg, err := config.Load(v)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		Enabled: cfg.LogsWrite,
		Level:   cfg.LogsLevel,
		Path:    cfg.LogsPath,
	})
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	logger.Debug().Str("Method", "setup").Str("Config", v.ConfigFileUsed()).Msg("configuration loaded")
	return cfg, logger, closer, nil
}

// bindFlags lets flags override config keys. Flags missing from cmd are skipped.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	bindings := map[string]string{
		"log-level": config.KeyLogsLevel,
		"log":       config.KeyLogsWrite,
		"seek-step": config.KeySeekStep,
		"mpv":       config.KeyMPVPath,
	}
	for flag, key := range bindings {
		if f := cmd.Flag(flag); f != nil {
			lo.Must0(v.BindPFlag(key, f))
		}
	}
}

func loadPlaylist(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger) (*models.Playlist, error) {
	if url := lo.Must(cmd.Flags().GetString("feed")); url != "" {
		return newFetcher(cfg, logger).Fetch(ctx, url)
	}

	if path := lo.Must(cmd.Flags().GetString("playlist")); path != "" {
		playlist, err := models.LoadPlaylist(path)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("Method", "loadPlaylist").Str("Path", path).Int("Episodes", len(playlist.Episodes)).Msg("playlist loaded")
		return playlist, nil
	}

	return nil, nil
}

func newFetcher(cfg *config.Config, logger zerolog.Logger) *feed.Fetcher {
	return feed.NewFetcher(feed.FetcherOptions{
		RetryMax: cfg.FeedRetry,
		Timeout:  cfg.FeedTimeout,
		Logger:   logger,
	})
}
