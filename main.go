// Command facet runs polygon-mesh editing scripts and previews the result.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg = DefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "facet",
	Short:         "Polygon mesh topology editor",
	Long:          "Build meshes from scripts and edit them with bevel, extrude and merge operators.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pf.IntVar(&cfg.KernelCells, "kernel-cells", cfg.KernelCells, "Marching cubes cells for sdf solids")
	pf.IntVar(&cfg.HistoryLimit, "history", cfg.HistoryLimit, "Number of undo snapshots to keep")
	pf.DurationVar(&cfg.EvalTimeout, "timeout", cfg.EvalTimeout, "Script evaluation time limit")
	pf.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Validate the mesh after every operator")
}

// newApp builds an App from the parsed flags.
func newApp() (*App, *zap.Logger, error) {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return NewApp(cfg, log), log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
