package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bsm/dirwalk"
	"github.com/bsm/dirwalk/internal/metrics"
	"github.com/bsm/dirwalk/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	generateAll       bool
	generateOverwrite bool
)

func init() {
	cmd := newGenerateCmd()
	cmd.Flags().BoolVar(&generateAll, "all", false, "Generate a store for every standard layout")
	cmd.Flags().BoolVar(&generateOverwrite, "overwrite", false, "Remove existing stores first")
	cmd.Flags().IntVar(&flags.FlushThreshold, "flush-threshold", flags.FlushThreshold, "Batch size in bytes which triggers a write")
	cmd.Flags().Int64Var(&flags.Seed, "seed", flags.Seed, "Seed of padding bytes, 0 seeds from the clock")
	rootCmd.AddCommand(cmd)
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate directory trees",
		Long: `The generate command writes a complete tree of --dirs directories per
level and --levels levels into a new store at <base-dir>/<layout>.

Example:
  dirwalk generate --layout proto-long --dirs 5 --levels 10
  dirwalk generate --all --store sntable --levels 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layouts, err := selectLayouts(generateAll)
			if err != nil {
				return err
			}
			for _, l := range layouts {
				if err := runGenerate(l); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runGenerate(l dirwalk.Layout) error {
	dir := cfg.StoreDir(l)
	kind := cfg.StoreKind()

	codec, err := newCodec(l)
	if err != nil {
		return err
	}

	if generateOverwrite {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}

	s, err := store.Create(kind, dir, storeOptions())
	if err != nil {
		return err
	}

	gen, err := dirwalk.NewGenerator(s, codec, &dirwalk.GeneratorOptions{
		DirsPerLevel:   cfg.DirsPerLevel,
		Levels:         cfg.Levels,
		NamePrefix:     cfg.NamePrefix,
		FlushThreshold: cfg.FlushThreshold,
		Logger:         logger.With(zap.String("dir", dir)),
		OnFlush:        metrics.ObserveFlush(l.String(), string(kind)),
	})
	if err != nil {
		_ = s.Close()
		return err
	}

	if val, err := codec.Encode(1, 0); err == nil {
		metrics.ValueSize.WithLabelValues(l.String()).Set(float64(len(val)))
	}

	start := time.Now()
	entries, err := gen.Generate()
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("generate %s: %w", l, err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dir, err)
	}

	printInfo("%-16s %d entries in %s (%s)\n", l, entries, dir, time.Since(start).Round(time.Millisecond))
	return nil
}
