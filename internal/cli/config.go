package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"deephelper/internal/config"
)

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing default .env is not an error; a missing explicit file is.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// resolveConfig merges defaults < config file < DEEPHELPER_* env < flags.
func resolveConfig(o *Options, flags *pflag.FlagSet, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()

	path := o.ConfigPath
	if path == "" {
		if v, ok := lookup(config.EnvPrefix + "CONFIG"); ok {
			path = v
		}
	}
	if path != "" {
		fc, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = config.Merge(cfg, fc)
	}

	ec, err := config.FromEnv(lookup)
	if err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	cfg = config.Merge(cfg, ec)

	fl := o.flags
	if changed(flags, "warmup") {
		v := o.warmup
		fl.Warmup = &v
	}
	if changed(flags, "cors") {
		v := o.cors
		fl.CORSEnabled = &v
	}
	if changed(flags, "cors-origins") {
		fl.CORSOrigins = config.SplitCSV(o.corsOrigins)
	}
	cfg = config.Merge(cfg, fl)
	return cfg, cfg.Validate()
}

func changed(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}
