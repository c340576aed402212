package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/viant/pathcover/check"
	"github.com/viant/pathcover/data"
	"github.com/viant/pathcover/logging"
)

func (a *app) checkCmd() *cobra.Command {
	var thresholds, indicator string
	cmd := &cobra.Command{
		Use:   "check [snapshot]",
		Short: "Verify minimum coverage percentages",
		Long: `Verify minimum line and path coverage percentages.

Thresholds are "[scope:]line%[,path%]" entries separated by ';'. The scope is
"perFile" or a source path prefix, dotted names are turned into paths.

Examples:
  pathcover check --thresholds "80,70"
  pathcover check coverage.json.lz4 --thresholds "perFile:60;app.service:90,80"
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("thresholds") {
				thresholds = a.cfg.Check
			}
			if !cmd.Flags().Changed("indicator") {
				indicator = a.cfg.CheckIndicator
			}
			parsed, err := check.ParseThresholds(thresholds)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			snapshot, err := a.store().Load(ctx, a.location(args))
			if err != nil {
				return err
			}
			checker := check.New(
				check.WithIndicator(absolute(indicator)),
				check.WithLogger(logging.Component(a.logger, "check")))
			result, err := checker.Verify(ctx, snapshot.Data, parsed)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, renderCheck(snapshot.Data, result))
			if !result.Passed() {
				return fmt.Errorf("%w: %d violations", errThresholdsNotMet, len(result.Violations))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&thresholds, "thresholds", "t", "", "minimum percentages (default from config)")
	cmd.Flags().StringVar(&indicator, "indicator", "", "file created when thresholds are not met, empty disables it")
	return cmd
}

func renderCheck(coverage *data.CoverageData, result *check.Result) string {
	failed := map[string]bool{}
	for _, violation := range result.Violations {
		failed[violation.Scope+"/"+violation.Metric.String()] = true
	}
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Scope", "Metric", "Coverage", "Minimum", "Status"})
	for _, threshold := range result.Thresholds {
		for _, metric := range data.Metrics {
			minimum, ok := threshold.Minimums[metric]
			if !ok {
				continue
			}
			status := color.New(color.FgGreen).Sprint("ok")
			if failed[threshold.Description()+"/"+metric.String()] {
				status = color.New(color.FgRed).Sprint("too low")
			}
			tbl.AppendRow(table.Row{threshold.Description(), metric.String(), formatPercentage(threshold.Percentage(coverage, metric)), fmt.Sprintf("%d%%", minimum), status})
		}
	}
	return tbl.Render()
}
