// Package config loads player settings from defaults, a YAML file and PODCAST_PLAYER_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const AppName = "podcast-player"

// Configuration keys
const (
	KeyMPVPath     = "player.mpv_path"
	KeySocketDir   = "player.socket_dir"
	KeySeekStep    = "player.seek_step"
	KeyAutoplay    = "player.autoplay"
	KeyLogsWrite   = "logs.write"
	KeyLogsLevel   = "logs.level"
	KeyLogsPath    = "logs.path"
	KeyFeedRetry   = "feed.retry_max"
	KeyFeedTimeout = "feed.timeout"
	KeySearchScore = "search.min_score"
)

// EnvKeyReplacer maps dotted keys onto environment variable names
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config holds the resolved settings
type Config struct {
	MPVPath     string
	SocketDir   string
	SeekStep    int // Seconds moved by the seek keys
	Autoplay    bool
	LogsWrite   bool
	LogsLevel   string
	LogsPath    string
	FeedRetry   int
	FeedTimeout time.Duration
	SearchScore int // Minimum fzf score for a search match, 0 keeps every match
}

// Dir returns the configuration directory, falling back to the working directory
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(configDir, AppName)
}

// Defaults returns the built-in value for every key
func Defaults() map[string]any {
	return map[string]any{
		KeyMPVPath:     "mpv",
		KeySocketDir:   os.TempDir(),
		KeySeekStep:    10,
		KeyAutoplay:    true,
		KeyLogsWrite:   false,
		KeyLogsLevel:   "info",
		KeyLogsPath:    filepath.Join(Dir(), AppName+".log"),
		KeyFeedRetry:   3,
		KeyFeedTimeout: 30 * time.Second,
		KeySearchScore: 50,
	}
}

// New creates a viper instance with defaults and environment bindings applied.
// configFile overrides the default search path when non-empty.
func New(configFile string) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(strings.ReplaceAll(AppName, "-", "_"))
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	return v
}

// Load reads the config file, if any, and resolves every setting.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	cfg := &Config{
		MPVPath:     v.GetString(KeyMPVPath),
		SocketDir:   v.GetString(KeySocketDir),
		SeekStep:    v.GetInt(KeySeekStep),
		Autoplay:    v.GetBool(KeyAutoplay),
		LogsWrite:   v.GetBool(KeyLogsWrite),
		LogsLevel:   v.GetString(KeyLogsLevel),
		LogsPath:    v.GetString(KeyLogsPath),
		FeedRetry:   v.GetInt(KeyFeedRetry),
		FeedTimeout: v.GetDuration(KeyFeedTimeout),
		SearchScore: v.GetInt(KeySearchScore),
	}

	if cfg.SeekStep <= 0 {
		cfg.SeekStep = 10
	}
	if cfg.SearchScore < 0 {
		cfg.SearchScore = 0
	}
	if cfg.FeedRetry < 0 {
		cfg.FeedRetry = 0
	}

	return cfg, nil
}
