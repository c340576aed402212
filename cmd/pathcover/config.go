package main

import (
	"github.com/spf13/cobra"
	"github.com/viant/pathcover/config"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return config.Dump(a.cfg, a.stdout)
		},
	}
}
