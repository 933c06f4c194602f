package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bsm/dirwalk"
	"github.com/bsm/dirwalk/internal/metrics"
	"github.com/bsm/dirwalk/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	queryAll  bool
	queryPath string
)

func init() {
	cmd := newQueryCmd()
	cmd.Flags().BoolVar(&queryAll, "all", false, "Query the store of every standard layout")
	cmd.Flags().StringVar(&queryPath, "path", "", "Walk a fixed path of comma separated child indexes instead")
	cmd.Flags().IntVar(&flags.Walks, "walks", flags.Walks, "Walks per worker, 0 runs until interrupted")
	cmd.Flags().IntVar(&flags.Workers, "workers", flags.Workers, "Number of concurrent walkers")
	cmd.Flags().Int64Var(&flags.Seed, "seed", flags.Seed, "Seed of random walks, 0 seeds from the clock")
	rootCmd.AddCommand(cmd)
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Walk generated trees",
		Long: `The query command performs random walks from the root of a generated
tree. Every walk must reach the deepest level; a shorter walk fails the run.

Example:
  dirwalk query --layout proto-long --walks 100000 --workers 4
  dirwalk query --layout long --walks 0
  dirwalk query --layout long --path 0,3,1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layouts, err := selectLayouts(queryAll)
			if err != nil {
				return err
			}

			path, err := parsePath(queryPath)
			if err != nil {
				return err
			}

			for _, l := range layouts {
				if path != nil {
					err = runWalk(l, path)
				} else {
					err = runQuery(cmd.Context(), l)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parsePath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid path %q", dirwalk.ErrConfig, s)
		}
		path = append(path, i)
	}
	return path, nil
}

func openQueryStore(l dirwalk.Layout) (store.Store, *dirwalk.Codec, error) {
	codec, err := newCodec(l)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.Open(cfg.StoreKind(), cfg.StoreDir(l), storeOptions())
	if err != nil {
		return nil, nil, err
	}
	return s, codec, nil
}

func runWalk(l dirwalk.Layout, path []int) error {
	s, codec, err := openQueryStore(l)
	if err != nil {
		return err
	}
	defer s.Close()

	w := dirwalk.NewWalker(s, codec, &dirwalk.WalkerOptions{NamePrefix: cfg.NamePrefix})
	steps, err := w.Walk(path)
	if err != nil {
		return err
	}

	printInfo("%-16s walked %d of %d levels\n", l, steps, len(path))
	return nil
}

func runQuery(ctx context.Context, l dirwalk.Layout) error {
	s, codec, err := openQueryStore(l)
	if err != nil {
		return err
	}
	defer s.Close()

	var walks, failed int64
	kind := string(cfg.StoreKind())
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		w := dirwalk.NewWalker(s, codec, &dirwalk.WalkerOptions{
			NamePrefix: cfg.NamePrefix,
			Rand:       newRand(i),
		})

		g.Go(func() error {
			for n := 0; cfg.Walks == 0 || n < cfg.Walks; n++ {
				if ctx.Err() != nil {
					return nil
				}

				t := time.Now()
				steps, err := w.WalkRandom(0, cfg.DirsPerLevel)
				metrics.ObserveWalk(l.String(), kind, steps, err, time.Since(t))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					return err
				}
				if steps != cfg.Levels {
					atomic.AddInt64(&failed, 1)
					return fmt.Errorf("expected to walk %d levels but only walked %d", cfg.Levels, steps)
				}
				atomic.AddInt64(&walks, 1)
			}
			return nil
		})
	}
	err = g.Wait()

	elapsed := time.Since(start)
	logger.Info("queried tree",
		zap.Stringer("layout", l),
		zap.String("store", kind),
		zap.Int64("walks", walks),
		zap.Int64("failed", failed),
		zap.Duration("elapsed", elapsed),
	)
	if err != nil {
		return fmt.Errorf("query %s: %w", l, err)
	}

	printInfo("%-16s %d walks in %s (%.0f walks/s)\n", l, walks, elapsed.Round(time.Millisecond), float64(walks)/elapsed.Seconds())
	return nil
}
