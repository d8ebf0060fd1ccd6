package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resolvd"
	"resolvd/internal/config"
	"resolvd/internal/console"
	"resolvd/internal/logger"
)

type rootFlags struct {
	configFile     string
	listen         string
	cacheFile      string
	journalDir     string
	delay          string
	maxConnections int
	metricsAddr    string
	resolverMode   string
	upstreams      []string
	errorReplies   bool
	logLevel       string
	logFormat      string
}

var flags rootFlags

var rootCmd = &cobra.Command{
	Use:   "resolvd",
	Short: "Caching domain-to-IP resolver over plain TCP.",
	Long: `resolvd answers "<domain>\n" with "<ip>\n" on a TCP port and remembers
every answer. The cache is saved to a JSON file on stop and loaded on start.

Without a subcommand an interactive menu controls the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		d, err := resolvd.New(cfg, resolvd.WithLogger(log))
		if err != nil {
			return err
		}
		return console.New(d, cmd.InOrStdin(), cmd.OutOrStdout()).Run()
	},
}

// Execute запускает корневую команду.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "resolvd:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "YAML config file")
	pf.StringVarP(&flags.listen, "listen", "l", "", "TCP listen address (default :12345)")
	pf.StringVar(&flags.cacheFile, "cache-file", "", "JSON cache file (default cache.txt)")
	pf.StringVar(&flags.journalDir, "journal-dir", "", "directory for the insert journal (empty disables it)")
	pf.StringVar(&flags.delay, "delay", "", "pause after every cache lookup, e.g. 5s or 0s")
	pf.IntVar(&flags.maxConnections, "max-connections", 0, "handlers running at once (0 = unlimited)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&flags.resolverMode, "resolver", "", "resolver mode: system or upstream")
	pf.StringSliceVar(&flags.upstreams, "upstream", nil, "upstream DNS servers for --resolver=upstream")
	pf.BoolVar(&flags.errorReplies, "error-replies", false, `answer "ERR <reason>" when resolution fails`)
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "console or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.DisableAutoGenTag = true
}

// setup читает конфиг, накладывает явно заданные флаги и строит логгер.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return cfg, nil, err
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("listen") {
		cfg.Listen = flags.listen
	}
	if changed("cache-file") {
		cfg.CacheFile = flags.cacheFile
	}
	if changed("journal-dir") {
		cfg.JournalDir = flags.journalDir
	}
	if changed("delay") {
		d, err := parseDuration(flags.delay)
		if err != nil {
			return fmt.Errorf("--delay: %w", err)
		}
		cfg.LookupDelay = d
	}
	if changed("max-connections") {
		cfg.MaxConnections = flags.maxConnections
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if changed("resolver") {
		cfg.Resolver.Mode = flags.resolverMode
	}
	if changed("upstream") {
		cfg.Resolver.Upstreams = flags.upstreams
	}
	if changed("error-replies") {
		cfg.ErrorReplies = flags.errorReplies
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	return nil
}

// parseDuration принимает "5s", "250ms" или просто число секунд.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
