package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) mergeCmd() *cobra.Command {
	var output string
	var recursive, accumulate bool
	cmd := &cobra.Command{
		Use:   "merge <snapshot|dir>...",
		Short: "Merge coverage snapshots of separate test runs",
		Long: `Merge coverage snapshots of separate test runs into one.

A directory input stands for its coverage.json; missing inputs are skipped.

Examples:
  pathcover merge unit/ integration/coverage.json.lz4 --output coverage.json
  pathcover merge --recursive build/ --output s3://bucket/coverage.json.lz4
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = a.cfg.Output
			}
			output = absolute(output)
			ctx := cmd.Context()
			store := a.store()
			var inputs []string
			for _, arg := range args {
				inputs = append(inputs, absolute(arg))
			}
			if recursive {
				roots := inputs
				inputs = nil
				for _, root := range roots {
					found, err := store.Find(ctx, root)
					if err != nil {
						return err
					}
					inputs = append(inputs, found...)
				}
			}
			merged, err := store.MergeFiles(ctx, inputs...)
			if err != nil {
				return err
			}
			if accumulate || a.cfg.Accumulate {
				err = store.Accumulate(ctx, output, merged)
			} else {
				err = store.Save(ctx, output, merged)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "merged %s runs covering %s files into %v\n",
				humanize.Comma(int64(len(merged.RunIDs))), humanize.Comma(int64(len(merged.Data.Files))), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "merged snapshot location (default from config)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "merge every coverage snapshot found under the given directories")
	cmd.Flags().BoolVar(&accumulate, "accumulate", false, "also merge the snapshot already stored at output")
	return cmd
}
