package main

import (
	"fmt"
	"time"

	"github.com/bsm/dirwalk"
	"github.com/spf13/cobra"
)

var verifyAll bool

func init() {
	cmd := newVerifyCmd()
	cmd.Flags().BoolVar(&verifyAll, "all", false, "Verify the store of every standard layout")
	rootCmd.AddCommand(cmd)
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that stores hold complete trees",
		Long: `The verify command scans a store and checks that it holds exactly one
entry per directory of the configured tree, each with a distinct id.

Example:
  dirwalk verify --layout cbor --dirs 5 --levels 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layouts, err := selectLayouts(verifyAll)
			if err != nil {
				return err
			}
			for _, l := range layouts {
				if err := runVerify(l); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runVerify(l dirwalk.Layout) error {
	s, codec, err := openQueryStore(l)
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	n, err := dirwalk.Verify(s, codec, cfg.DirsPerLevel, cfg.Levels)
	if err != nil {
		return fmt.Errorf("verify %s: %w", l, err)
	}

	printInfo("%-16s %d entries ok (%s)\n", l, n, time.Since(start).Round(time.Millisecond))
	return nil
}
