package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/pathcover/graph"
)

func (a *app) graphCmd() *cobra.Command {
	var location string
	var method int
	cmd := &cobra.Command{
		Use:   "graph <source file>",
		Short: "Print method control flow graphs in graphviz DOT format",
		Long: `Print method control flow graphs of a source file in graphviz DOT format.
Nodes are labelled with the executions of paths running through them.

Examples:
  pathcover graph app/service.go | dot -Tsvg > service.svg
  pathcover graph app/service.go --method 42 --snapshot coverage.json.lz4
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if location == "" {
				location = a.cfg.Output
			}
			location = absolute(location)
			snapshot, err := a.store().Load(cmd.Context(), location)
			if err != nil {
				return err
			}
			file := snapshot.Data.File(args[0])
			if file == nil {
				return fmt.Errorf("file %v not found in %v", args[0], location)
			}
			emitted := 0
			for _, firstLine := range file.MethodLines() {
				if method != 0 && firstLine != method {
					continue
				}
				methodData := file.Method(firstLine)
				if methodData.Graph.IsEmpty() {
					a.logger.Debug("method without graph", "method", methodData.Name, "line", firstLine, "unsupported", methodData.Unsupported)
					continue
				}
				var emitter graph.Emitter = &graph.DOTEmitter{Counts: methodData.NodeCounts()}
				source, err := emitter.Emit(fmt.Sprintf("%s:%d %s", args[0], firstLine, methodData.Name), methodData.Graph)
				if err != nil {
					return err
				}
				if _, err = a.stdout.Write(source); err != nil {
					return err
				}
				emitted++
			}
			if emitted == 0 {
				return fmt.Errorf("no method graph found in %v", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "snapshot", "s", "", "snapshot location (default from config)")
	cmd.Flags().IntVarP(&method, "method", "m", 0, "only the method whose body starts at line")
	return cmd
}
