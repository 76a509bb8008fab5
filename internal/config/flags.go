package config

import (
	"flag"
	"strconv"
)

var (
	flagConfig          = flag.String("config", "", "Path to config file")
	flagDebug           = flag.Bool("debug", false, "Enable debug logging")
	flagOut             = flag.String("out", "", "Output directory (game root)")
	flagLevel           = flag.Int("level", -1, "Level index")
	flagSeed            = optionalInt64("seed", "Random seed for generation")
	flagUncompressedFTS = flag.Bool("uncompressed-fts", false, "Write the geometry file without compression")
	flagNoLighting      = flag.Bool("no-lighting", false, "Skip the lighting bake")
	flagLightingMode    = flag.String("lighting-mode", "", "Lighting mode: arx, max_brightness, complete_darkness")
)

// int64Flag is an int64 flag that records whether it was given, so that
// every value, zero included, can override the config file.
type int64Flag struct {
	value int64
	set   bool
}

func optionalInt64(name, usage string) *int64Flag {
	f := &int64Flag{}
	flag.Var(f, name, usage)
	return f
}

func (f *int64Flag) String() string {
	return strconv.FormatInt(f.value, 10)
}

func (f *int64Flag) Set(s string) error {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return err
	}
	f.value = v
	f.set = true
	return nil
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ParseArgs parses flags given after a subcommand name.
func ParseArgs(args []string) error {
	return flag.CommandLine.Parse(args)
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagLevel >= 0 {
		cfg.Output.Level = *flagLevel
	}
	if flagSeed.set {
		cfg.Generation.Seed = flagSeed.value
	}
	if *flagUncompressedFTS {
		cfg.Output.UncompressedFTS = true
	}
	if *flagNoLighting {
		cfg.Lighting.Calculate = false
	}
	if *flagLightingMode != "" {
		cfg.Lighting.Mode = *flagLightingMode
	}
}
