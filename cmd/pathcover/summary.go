package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/viant/pathcover/data"
)

const lowPercentage = 50

func (a *app) summaryCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "summary [snapshot]",
		Short: "Print line and path coverage per file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := a.store().Load(cmd.Context(), a.location(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, renderSummary(snapshot.Data, prefix))
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "only files whose path starts with prefix")
	return cmd
}

func renderSummary(coverage *data.CoverageData, prefix string) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Lines", "Line %", "Paths", "Path %"})
	files := 0
	for _, name := range coverage.FileNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		file := coverage.File(name)
		lines := file.Counts(data.MetricLine)
		paths := file.Counts(data.MetricPath)
		tbl.AppendRow(table.Row{name, formatCounts(lines), formatPercentage(file.CodeCoveragePercentage()), formatCounts(paths), formatPercentage(file.PathCoveragePercentage())})
		files++
	}
	lines := coverage.Counts(data.MetricLine, prefix)
	paths := coverage.Counts(data.MetricPath, prefix)
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %s files", humanize.Comma(int64(files))), formatCounts(lines), formatPercentage(lines.Percentage()), formatCounts(paths), formatPercentage(paths.Percentage())})
	return tbl.Render()
}

func formatCounts(counts data.Counts) string {
	return humanize.Comma(int64(counts.Covered)) + "/" + humanize.Comma(int64(counts.Total))
}

func formatPercentage(percentage int) string {
	if percentage < 0 {
		return "-"
	}
	text := fmt.Sprintf("%d%%", percentage)
	if percentage < lowPercentage {
		return color.New(color.FgYellow).Sprint(text)
	}
	return text
}
