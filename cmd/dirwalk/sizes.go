package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bsm/dirwalk"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sizes",
		Short: "Print key and value sizes of all layouts",
		Long: `The sizes command encodes the deepest entry of the configured tree in
every standard layout and prints the resulting sizes.

Example:
  dirwalk sizes --dirs 10 --levels 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSizes()
		},
	})
}

func runSizes() error {
	if err := dirwalk.CheckShape(cfg.DirsPerLevel, cfg.Levels); err != nil {
		return err
	}
	entries := dirwalk.TreeSize(cfg.DirsPerLevel, cfg.Levels)

	key, err := dirwalk.EncodeKey(entries, dirwalk.DirName(cfg.NamePrefix, cfg.DirsPerLevel-1))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "layout\tkey\tvalue\tentry\ttree\t")
	for _, l := range dirwalk.Layouts {
		codec, err := newCodec(l)
		if err != nil {
			return err
		}

		val, err := codec.Encode(entries, entries-1)
		if err != nil {
			return err
		}

		entry := len(key) + len(val)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", l, len(key), len(val), entry, int64(entry)*entries)
	}
	return tw.Flush()
}
