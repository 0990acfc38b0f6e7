package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/engine"
	"github.com/chazu/facet/pkg/kernel/sdfx"
)

const (
	// DefaultLogLevel is used when --log-level is not given.
	DefaultLogLevel = "info"
	// DefaultHistoryLimit is the number of undo snapshots kept.
	DefaultHistoryLimit = 64
)

// Config holds the host settings populated from command-line flags.
type Config struct {
	LogLevel     string
	KernelCells  int           // marching cubes cells along the longest axis
	HistoryLimit int           // undo snapshots kept, oldest dropped first
	EvalTimeout  time.Duration // hard limit for one script evaluation
	Verify       bool          // validate the mesh after every operator
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		LogLevel:     DefaultLogLevel,
		KernelCells:  sdfx.DefaultCells,
		HistoryLimit: DefaultHistoryLimit,
		EvalTimeout:  engine.EvalTimeout,
	}
}

// newLogger builds a console logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = lvl
	zc.DisableStacktrace = true
	return zc.Build()
}
