// Package main provides the pathcover CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/viant/pathcover/config"
	"github.com/viant/pathcover/logging"
	"github.com/viant/pathcover/snapshot"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const exitCodeCheckFailure = 2

var errThresholdsNotMet = errors.New("minimum coverage percentages not reached")

type app struct {
	cfgFile string
	noColor bool
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func main() {
	err := newRootCmd(os.Stdout, os.Stderr).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errThresholdsNotMet) {
			os.Exit(exitCodeCheckFailure)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	rootCmd := &cobra.Command{
		Use:           "pathcover",
		Short:         "Path coverage snapshots: merge, check and summarize",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./pathcover.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(a.mergeCmd())
	rootCmd.AddCommand(a.checkCmd())
	rootCmd.AddCommand(a.summaryCmd())
	rootCmd.AddCommand(a.graphCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(versionCmd(stdout))
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logger, err = logging.FromConfig(a.stderr, &cfg.Logging); err != nil {
		return err
	}
	if a.noColor {
		color.NoColor = true //nolint:reassign // library global
	}
	return nil
}

func (a *app) store() *snapshot.Store {
	return snapshot.NewStore(
		snapshot.WithLogger(logging.Component(a.logger, "store")),
		snapshot.WithConcurrency(a.cfg.Concurrency))
}

// location returns the snapshot given as argument or the configured output
func (a *app) location(args []string) string {
	if len(args) > 0 {
		return absolute(args[0])
	}
	return absolute(a.cfg.Output)
}

// absolute resolves a local relative path against the working directory; URLs are kept as is
func absolute(location string) string {
	if location == "" || strings.Contains(location, "://") {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return location
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "pathcover %s\n", version)
		},
	}
}
