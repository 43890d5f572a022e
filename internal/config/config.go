package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jchantrell/kotka/internal/cache"
)

type Config struct {
	InstallPath   string   `mapstructure:"install_path"`
	Database      string   `mapstructure:"database"`
	OutputDir     string   `mapstructure:"output_dir"`
	ArchiveFilter int      `mapstructure:"archive_filter"`
	TypeFilter    string   `mapstructure:"type_filter"`
	CacheSize     int      `mapstructure:"cache_size"`
	Languages     []string `mapstructure:"languages"`
	LogLevel      string   `mapstructure:"log_level"`
	LogFormat     string   `mapstructure:"log_format"`
	LogOutputDir  string   `mapstructure:"log_output_dir"`
}

// HasArchiveFilter reports whether only one archive index should be loaded
func (c *Config) HasArchiveFilter() bool {
	return c.ArchiveFilter >= 0
}

// Load initializes and loads configuration from file and KOTKA_ environment
// variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	dirs := cache.CacheManager()

	// Set defaults
	v.SetDefault("install_path", ".")
	v.SetDefault("database", dirs.GetDatabasePath())
	v.SetDefault("output_dir", dirs.GetExportDir())
	v.SetDefault("archive_filter", -1)
	v.SetDefault("type_filter", "")
	v.SetDefault("cache_size", 0)
	v.SetDefault("languages", []string{"english"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_output_dir", "")

	v.SetEnvPrefix("KOTKA")
	v.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("kotka")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure English is always included if languages is empty
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"english"}
	}

	return &cfg, nil
}

// Validate checks every field a flag override may have changed
func (c *Config) Validate() error {
	c.TypeFilter = strings.ToLower(strings.TrimPrefix(c.TypeFilter, "."))

	if err := validateTypeFilter(c.TypeFilter); err != nil {
		return fmt.Errorf("invalid type filter: %w", err)
	}

	if err := validateLanguages(c.Languages); err != nil {
		return fmt.Errorf("invalid language configuration: %w", err)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}

	if c.ArchiveFilter >= 1<<12 {
		return fmt.Errorf("archive_filter %d exceeds the largest archive index %d", c.ArchiveFilter, 1<<12-1)
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format '%s': supported formats are text, json", c.LogFormat)
	}

	return nil
}
