package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/dirwalk"
	"github.com/bsm/dirwalk/internal/config"
	"github.com/bsm/dirwalk/internal/metrics"
	"github.com/bsm/dirwalk/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	quiet   bool
	flags   = config.DefaultConfig()

	// Set by the root command before any subcommand runs
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dirwalk",
	Short: "Generate directory trees in key/value stores and walk them",
	Long: `dirwalk models a directory tree as entries of an ordered key/value store.
Every entry is keyed by the parent id and the directory name, its value
holds the id of the directory itself. Trees are generated per value layout
and queried by random walks from the root to the deepest level.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.StringVar(&flags.BaseDir, "base-dir", flags.BaseDir, "Directory holding one store per layout")
	pf.StringVar(&flags.Store, "store", flags.Store, "Store kind: leveldb, badger, cdb, sstable or sntable")
	pf.StringVar(&flags.Layout, "layout", flags.Layout, "Value layout, e.g. long, proto-long or padding-100")
	pf.IntVar(&flags.DirsPerLevel, "dirs", flags.DirsPerLevel, "Directories per level")
	pf.IntVar(&flags.Levels, "levels", flags.Levels, "Number of levels")
	pf.StringVar(&flags.NamePrefix, "prefix", flags.NamePrefix, "Directory name prefix")
	pf.IntVar(&flags.CacheMB, "cache-mb", flags.CacheMB, "Block cache size in MiB")
	pf.BoolVar(&flags.Compression, "compression", flags.Compression, "Enable snappy block compression")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level")
	pf.StringVar(&flags.MetricsAddr, "metrics-addr", flags.MetricsAddr, "Serve prometheus metrics on this address")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and starts the ambient
// services.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lvl, _ := c.ParseLogLevel()
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	if logger, err = zc.Build(); err != nil {
		return err
	}
	cfg = c

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.DefaultConfig()
	if cfgFile != "" {
		var err error
		if c, err = config.LoadConfig(cfgFile); err != nil {
			return nil, err
		}
	}

	overrides := map[string]func(){
		"base-dir":        func() { c.BaseDir = flags.BaseDir },
		"store":           func() { c.Store = flags.Store },
		"layout":          func() { c.Layout = flags.Layout },
		"dirs":            func() { c.DirsPerLevel = flags.DirsPerLevel },
		"levels":          func() { c.Levels = flags.Levels },
		"prefix":          func() { c.NamePrefix = flags.NamePrefix },
		"cache-mb":        func() { c.CacheMB = flags.CacheMB },
		"compression":     func() { c.Compression = flags.Compression },
		"log-level":       func() { c.LogLevel = flags.LogLevel },
		"metrics-addr":    func() { c.MetricsAddr = flags.MetricsAddr },
		"flush-threshold": func() { c.FlushThreshold = flags.FlushThreshold },
		"seed":            func() { c.Seed = flags.Seed },
		"workers":         func() { c.Workers = flags.Workers },
		"walks":           func() { c.Walks = flags.Walks },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}

// Helper functions

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// selectLayouts returns all standard layouts or the configured one.
func selectLayouts(all bool) ([]dirwalk.Layout, error) {
	if all {
		return dirwalk.Layouts, nil
	}

	l, err := dirwalk.ParseLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}
	return []dirwalk.Layout{l}, nil
}

// newRand returns the n-th random source. Sources are deterministic when a
// seed is configured.
func newRand(n int) *rand.Rand {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed + int64(n)))
}

func newCodec(l dirwalk.Layout) (*dirwalk.Codec, error) {
	return dirwalk.NewLayoutCodec(l, &dirwalk.CodecOptions{
		Rand: newRand(0),
		Name: cfg.NamePrefix,
	})
}

func storeOptions() *store.Options {
	o := cfg.StoreOptions()
	o.Logger = logger
	return o
}
