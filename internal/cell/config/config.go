// Package config holds the process-wide diagnostic options of bindcell.
//
// Options are resolved once at startup, in order:
//
//  1. Built-in defaults (see Default)
//  2. The TOML file named by BINDCELL_CONFIG, if set
//  3. BINDCELL_OPTIONS, space-separated key=value pairs (GORACE style)
//
// Example:
//
//	BINDCELL_OPTIONS="max_frames=32 dump=/tmp/conflicts.msgpack" ./myapp
//
// A malformed environment is reported on stderr and the defaults are kept;
// diagnostics must never stop the host program from starting.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/BurntSushi/toml"
)

// Environment variables consulted by FromEnv.
const (
	EnvConfigFile = "BINDCELL_CONFIG"
	EnvOptions    = "BINDCELL_OPTIONS"
)

// Bounds for MaxFrames.
const (
	MinFrames     = 1
	MaxFramesCap  = 64
	defaultFrames = 16
)

// Options configures acquisition-site capture and conflict recording.
type Options struct {
	// MaxFrames is the number of stack frames captured per acquisition site.
	MaxFrames int `toml:"max_frames"`

	// SkipPrefixes lists function-name prefixes dropped from rendered reports.
	SkipPrefixes []string `toml:"skip_prefixes"`

	// Dump is the path of the msgpack conflict dump. Empty disables dumping.
	Dump string `toml:"dump"`

	// ReportLimit caps the number of sites rendered in one error (0 = all).
	ReportLimit int `toml:"report_limit"`
}

// Default returns the built-in options.
func Default() Options {
	return Options{
		MaxFrames:    defaultFrames,
		SkipPrefixes: []string{"runtime.", "testing."},
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxFrames < MinFrames || o.MaxFrames > MaxFramesCap {
		return fmt.Errorf("max_frames must be in [%d, %d], got %d", MinFrames, MaxFramesCap, o.MaxFrames)
	}
	if o.ReportLimit < 0 {
		return fmt.Errorf("report_limit must not be negative, got %d", o.ReportLimit)
	}
	return nil
}

// Load reads a TOML file on top of the defaults.
// Keys absent from the file keep their default values.
func Load(path string) (Options, error) {
	opts := Default()
	meta, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Options{}, fmt.Errorf("%s: unknown option %q", path, undecoded[0].String())
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Parse applies space-separated key=value pairs on top of base.
//
// skip_prefixes takes a comma-separated list and replaces the base list.
func Parse(base Options, s string) (Options, error) {
	opts := base
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Options{}, fmt.Errorf("malformed option %q: expected key=value", field)
		}
		switch key {
		case "max_frames":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Options{}, fmt.Errorf("max_frames: %w", err)
			}
			opts.MaxFrames = n
		case "report_limit":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Options{}, fmt.Errorf("report_limit: %w", err)
			}
			opts.ReportLimit = n
		case "dump":
			opts.Dump = value
		case "skip_prefixes":
			opts.SkipPrefixes = nil
			if value != "" {
				opts.SkipPrefixes = strings.Split(value, ",")
			}
		default:
			return Options{}, fmt.Errorf("unknown option %q", key)
		}
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// FromEnv resolves options from the environment.
func FromEnv() (Options, error) {
	opts := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Default(), err
		}
		opts = loaded
	}
	if s := os.Getenv(EnvOptions); s != "" {
		parsed, err := Parse(opts, s)
		if err != nil {
			return Default(), fmt.Errorf("%s: %w", EnvOptions, err)
		}
		opts = parsed
	}
	return opts, nil
}

var current atomic.Pointer[Options]

func init() {
	opts, err := FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bindcell: ignoring configuration: %v\n", err)
	}
	current.Store(&opts)
}

// Current returns the active options.
func Current() Options {
	return *current.Load()
}

// Set replaces the active options. Intended for tests and embedding programs
// that configure bindcell programmatically.
func Set(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	current.Store(&opts)
	return nil
}

// ErrNoConfig is returned by LoadIfExists when the file is absent.
var ErrNoConfig = errors.New("config file not found")

// LoadIfExists behaves like Load but returns ErrNoConfig for a missing file.
func LoadIfExists(path string) (Options, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), ErrNoConfig
		}
		return Options{}, err
	}
	return Load(path)
}
