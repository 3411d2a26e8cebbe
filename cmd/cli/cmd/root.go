package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dexprofile/pkg/config"
	"github.com/dexprofile/pkg/pprof"
	"github.com/dexprofile/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configFile string
	logger     utils.Logger
	cfg        *config.Config

	// Pprof flags
	pprofEnabled     bool
	pprofMode        string
	pprofDir         string
	pprofProfiles    string
	pprofInterval    string
	pprofCPUDuration string
	pprofAddr        string

	// Pprof collector
	pprofCollector *pprof.Collector
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dexprofile",
	Short: "A baseline profile inspection and management tool",
	Long: `dexprofile is a CLI tool for working with ART baseline profile binaries.

It decodes and encodes the three profile wire formats (v1, v2 and v3),
converts profiles between formats, merges profiles from multiple sessions,
and imports profile blobs into a catalog backed by a database and blob
storage.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logger based on verbose flag
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		// Initialize pprof if enabled
		if pprofEnabled {
			pprofCfg, err := buildPprofConfig()
			if err != nil {
				return err
			}

			collector, err := pprof.NewCollector(pprofCfg)
			if err != nil {
				return err
			}

			if err := collector.Start(); err != nil {
				return err
			}

			pprofCollector = collector
			logger.Info("pprof collection started (mode: %s, dir: %s)", pprofCfg.Mode, pprofCfg.OutputDir)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Stop pprof collector
		if pprofCollector != nil {
			logger.Info("Stopping pprof collection...")
			if err := pprofCollector.Stop(); err != nil {
				logger.Warn("Failed to stop pprof collector: %v", err)
			}
			logger.Info("pprof data saved to: %s", pprofCollector.Writer().GetOutputDir())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: ./config.yaml)")

	// Pprof flags
	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "Enable pprof performance profiling")
	rootCmd.PersistentFlags().StringVar(&pprofMode, "pprof-mode", "file", "Pprof mode: file (periodic snapshots) or http (on-demand)")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "Output directory for pprof data")
	rootCmd.PersistentFlags().StringVar(&pprofProfiles, "pprof-profiles", "cpu,heap,goroutine", "Comma-separated profile types: cpu,heap,goroutine,block,mutex,allocs")
	rootCmd.PersistentFlags().StringVar(&pprofInterval, "pprof-interval", "30s", "Snapshot interval for file mode")
	rootCmd.PersistentFlags().StringVar(&pprofCPUDuration, "pprof-cpu-duration", "10s", "CPU profile duration per snapshot")
	rootCmd.PersistentFlags().StringVar(&pprofAddr, "pprof-addr", ":6060", "HTTP listen address for http mode")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Inspect a profile binary
  ` + binName + ` dump baseline.prof

  # Convert a v1 profile to the v3 wire format
  ` + binName + ` convert -i baseline.prof -o baseline-v3.prof --to v3

  # Merge several session profiles into one
  ` + binName + ` merge -o merged.prof session1.prof session2.prof

  # Import profiles into the catalog
  ` + binName + ` import --package com.example.app --version-code 42 baseline.prof`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// buildPprofConfig builds pprof configuration from command line flags.
func buildPprofConfig() (*pprof.Config, error) {
	cfg := pprof.DefaultConfig()
	cfg.Enabled = true
	cfg.OutputDir = pprofDir

	switch pprofMode {
	case "file":
		cfg.Mode = pprof.ModeFile
	case "http":
		cfg.Mode = pprof.ModeHTTP
	default:
		return nil, fmt.Errorf("invalid pprof mode: %q (valid: file, http)", pprofMode)
	}

	profiles, err := pprof.ParseProfileTypes(pprofProfiles)
	if err != nil {
		return nil, err
	}
	cfg.Profiles = profiles

	interval, err := time.ParseDuration(pprofInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof interval: %w", err)
	}
	cfg.Interval = interval

	cpuDuration, err := time.ParseDuration(pprofCPUDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof CPU duration: %w", err)
	}
	cfg.CPUDuration = cpuDuration

	cfg.Addr = pprofAddr

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
