// Package pprof collects runtime profiles for the CLI. File mode takes
// periodic snapshots and writes them under an output directory; http
// mode serves the standard debug endpoints for on-demand collection.
package pprof

import (
	"fmt"
	"strings"
	"time"
)

// ModeType selects how profiles are collected.
type ModeType string

const (
	// ModeFile writes profile snapshots to files at regular intervals.
	ModeFile ModeType = "file"
	// ModeHTTP serves the net/http/pprof endpoints.
	ModeHTTP ModeType = "http"
)

// ProfileType names a runtime profile.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileBlock     ProfileType = "block"
	ProfileMutex     ProfileType = "mutex"
	ProfileAllocs    ProfileType = "allocs"
)

// AllProfileTypes returns every supported profile type.
func AllProfileTypes() []ProfileType {
	return []ProfileType{
		ProfileCPU,
		ProfileHeap,
		ProfileGoroutine,
		ProfileBlock,
		ProfileMutex,
		ProfileAllocs,
	}
}

// DefaultProfileTypes returns the types collected when none are named.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine}
}

// ParseProfileTypes parses a comma-separated list of profile type
// names. An empty string yields the defaults.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if s == "" {
		return DefaultProfileTypes(), nil
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}

	return types, nil
}

// Config holds the collector settings.
type Config struct {
	// Enabled turns collection on.
	Enabled bool `mapstructure:"enabled"`

	// Mode is the collection mode, file or http.
	Mode ModeType `mapstructure:"mode"`

	// Profiles lists the profile types to collect in file mode.
	Profiles []ProfileType `mapstructure:"profiles"`

	// OutputDir is where file mode writes snapshots.
	OutputDir string `mapstructure:"output_dir"`

	// Interval is the time between file mode snapshots.
	Interval time.Duration `mapstructure:"interval"`

	// CPUDuration is how long each CPU snapshot records.
	CPUDuration time.Duration `mapstructure:"cpu_duration"`

	// CPURate is the CPU profiling rate in Hz.
	CPURate int `mapstructure:"cpu_rate"`

	// MaxFiles caps the snapshot files kept per profile type.
	MaxFiles int `mapstructure:"max_files"`

	// Addr is the listen address for http mode.
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		Mode:        ModeFile,
		Profiles:    DefaultProfileTypes(),
		OutputDir:   "./pprof",
		Interval:    30 * time.Second,
		CPUDuration: 10 * time.Second,
		CPURate:     100,
		MaxFiles:    10,
		Addr:        ":6060",
	}
}

// Validate checks the configuration for an enabled collector.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Mode {
	case ModeFile:
		if len(c.Profiles) == 0 {
			return fmt.Errorf("at least one profile type must be specified")
		}
		if c.OutputDir == "" {
			return fmt.Errorf("output directory is required")
		}
		if c.Interval < time.Second {
			return fmt.Errorf("interval must be at least 1 second")
		}
		if c.CPUDuration < time.Second {
			return fmt.Errorf("CPU duration must be at least 1 second")
		}
		if c.HasProfile(ProfileCPU) && c.CPUDuration >= c.Interval {
			return fmt.Errorf("CPU duration must be less than interval")
		}
	case ModeHTTP:
		if c.Addr == "" {
			return fmt.Errorf("HTTP address is required")
		}
	default:
		return fmt.Errorf("invalid pprof mode: %q (valid: file, http)", c.Mode)
	}

	return nil
}

// HasProfile reports whether a profile type is enabled.
func (c *Config) HasProfile(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
