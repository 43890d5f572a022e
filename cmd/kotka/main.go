package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jchantrell/kotka/internal/cache"
	"github.com/jchantrell/kotka/internal/config"
	"github.com/jchantrell/kotka/internal/logging"
)

var (
	cfg      *config.Config
	cfgFile  string
	closeLog func() error

	installPath   string
	dbPath        string
	outputDir     string
	archiveFilter int
	typeFilter    string
	cacheSize     int
	languages     []string
	logLevel      string
	logFormat     string
	logOutputDir  string
	logToFile     bool
	noProgress    bool
)

var rootCmd = &cobra.Command{
	Use:   "kotka",
	Short: "KEY/BIF archive and ERF resource pack tool",
	Long: `kotka reads the resource archives of a KotOR-era install.

The chitin.key index at the install root is used to locate resources inside
the numbered BIF data archives, which can then be listed, extracted or written
to a queryable SQLite manifest. ERF, MOD, SAV and HAK resource packs can be
inspected, exported and rewritten with the erf subcommands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("install") {
			cfg.InstallPath = installPath
		}
		if flags.Changed("database") {
			cfg.Database = dbPath
		}
		if flags.Changed("output") {
			cfg.OutputDir = outputDir
		}
		if flags.Changed("archive") {
			cfg.ArchiveFilter = archiveFilter
		}
		if flags.Changed("type") {
			cfg.TypeFilter = typeFilter
		}
		if flags.Changed("cache-size") {
			cfg.CacheSize = cacheSize
		}
		if flags.Changed("languages") {
			cfg.Languages = languages
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if flags.Changed("log-dir") {
			cfg.LogOutputDir = logOutputDir
		}
		if logToFile && cfg.LogOutputDir == "" {
			cfg.LogOutputDir = cache.CacheManager().GetLogDir()
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		closeLog, err = logging.Setup(logging.Options{
			Level:     cfg.LogLevel,
			Format:    cfg.LogFormat,
			OutputDir: cfg.LogOutputDir,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		slog.Debug("Configuration",
			"install_path", cfg.InstallPath,
			"database", cfg.Database,
			"output_dir", cfg.OutputDir,
			"archive_filter", cfg.ArchiveFilter,
			"type_filter", cfg.TypeFilter,
			"cache_size", cfg.CacheSize,
			"languages", cfg.Languages,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// showProgress reports whether a progress bar may be drawn over the logs
func showProgress() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is kotka.yaml in $HOME or pwd)")
	flags.StringVarP(&installPath, "install", "i", "", "game install directory holding chitin.key")
	flags.StringVarP(&dbPath, "database", "d", "", "manifest database file path")
	flags.StringVarP(&outputDir, "output", "o", "", "directory extracted resources are written to")
	flags.IntVar(&archiveFilter, "archive", -1, "only index resources of this archive index")
	flags.StringVar(&typeFilter, "type", "", "only index resources with this extension")
	flags.IntVar(&cacheSize, "cache-size", 0, "number of extracted resources kept in memory (0 disables)")
	flags.StringSliceVar(&languages, "languages", []string{"english"}, "comma-separated list of languages for text decoding")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	flags.StringVar(&logOutputDir, "log-dir", "", "also write JSON logs to a file in this directory")
	flags.BoolVar(&logToFile, "log-file", false, "write JSON logs to the kotka cache directory")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
