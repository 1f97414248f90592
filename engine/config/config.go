// Package config loads tilepatch settings from defaults, an optional
// tilepatch.yaml and TILEPATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/1siamBot/tilepatch/engine/logging"
	"github.com/1siamBot/tilepatch/engine/tilesheet"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TILEPATCH"

// Config is the resolved configuration
type Config struct {
	MaxTilesheetHeight int            `mapstructure:"max_tilesheet_height"`
	HostDir            string         `mapstructure:"host_dir"`
	PacksDir           string         `mapstructure:"packs_dir"`
	OutDir             string         `mapstructure:"out_dir"`
	SheetCacheMaxCost  int64          `mapstructure:"sheet_cache_max_cost"`
	LedgerPath         string         `mapstructure:"ledger_path"`
	StartIndex         map[string]int `mapstructure:"start_index"`
	Log                LogConfig      `mapstructure:"log"`
}

// LogConfig mirrors logging.Options
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Options converts to logging options
func (l LogConfig) Options() logging.Options {
	return logging.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_tilesheet_height", tilesheet.DefaultMaxHeight)
	v.SetDefault("host_dir", "host")
	v.SetDefault("packs_dir", "packs")
	v.SetDefault("out_dir", "out")
	v.SetDefault("sheet_cache_max_cost", 256<<20)
	v.SetDefault("ledger_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
}

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"host":       "host_dir",
	"packs":      "packs_dir",
	"out":        "out_dir",
	"ledger":     "ledger_path",
	"max-height": "max_tilesheet_height",
	"log-level":  "log.level",
	"log-file":   "log.file",
}

// RegisterFlags defines the flags Load understands on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "", "directory holding the host atlases")
	fs.String("packs", "", "directory of content packs")
	fs.String("out", "", "output directory for patched atlases")
	fs.String("ledger", "", "SQLite placement ledger path")
	fs.Int("max-height", 0, "tallest texture the host accepts")
	fs.String("log-level", "", "trace, debug, info, warn or error")
	fs.String("log-file", "", "also log to this rotating file")
}

// Load reads configuration. An empty path searches the working directory
// and the user config directory for tilepatch.yaml; a missing file there is
// not an error. An explicit path must exist. Flags set on fs, which may be
// nil, override everything else.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tilepatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "tilepatch"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.StartIndex == nil {
		cfg.StartIndex = make(map[string]int)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no pass could run with
func (c *Config) Validate() error {
	if c.MaxTilesheetHeight <= 0 {
		return fmt.Errorf("max_tilesheet_height must be positive, got %d", c.MaxTilesheetHeight)
	}
	if c.SheetCacheMaxCost < 0 {
		return fmt.Errorf("sheet_cache_max_cost must not be negative, got %d", c.SheetCacheMaxCost)
	}
	for k, idx := range c.StartIndex {
		if idx < 0 {
			return fmt.Errorf("start_index.%s must not be negative, got %d", k, idx)
		}
	}
	if c.HostDir == "" {
		return errors.New("host_dir is required")
	}
	return nil
}
