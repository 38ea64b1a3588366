package main

import (
	"fmt"
	"strings"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/meshgen"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SDFMESH"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"size":     "size",
	"min-size": "min_size",
	"budget":   "budget",
}

// loadConfig layers configuration sources over base, lowest precedence
// first: base (scene file), the config file at path, SDFMESH_ environment
// variables and changed flags.
func loadConfig(base meshgen.Config, path string, fs *pflag.FlagSet) (meshgen.Config, error) {
	v := viper.New()
	setDefaults(v, base)
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return base, fmt.Errorf("%w: reading config file %s: %v", sdfmesh.ErrConfiguration, path, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return base, err
				}
			}
		}
	}

	cfg := base
	if base.Refine != nil {
		rc := *base.Refine
		cfg.Refine = &rc
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return base, fmt.Errorf("%w: %v", sdfmesh.ErrConfiguration, err)
	}
	if fs != nil {
		if refine, _ := fs.GetBool("refine"); refine && cfg.Refine == nil {
			rc := meshgen.DefaultRefineConfig(cfg.MinSize)
			cfg.Refine = &rc
		}
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper, cfg meshgen.Config) {
	v.SetDefault("center.x", cfg.Center.X)
	v.SetDefault("center.y", cfg.Center.Y)
	v.SetDefault("center.z", cfg.Center.Z)
	v.SetDefault("size", cfg.Size)
	v.SetDefault("min_size", cfg.MinSize)
	v.SetDefault("budget", cfg.Budget)
	v.SetDefault("projection.max_iterations", cfg.Projection.MaxIterations)
	v.SetDefault("projection.epsilon", cfg.Projection.Epsilon)
	v.SetDefault("projection.step", cfg.Projection.Step)
	if cfg.Refine != nil {
		v.SetDefault("refine.error_threshold", cfg.Refine.ErrorThreshold)
		v.SetDefault("refine.min_edge_length", cfg.Refine.MinEdgeLength)
		v.SetDefault("refine.max_splits", cfg.Refine.MaxSplits)
		v.SetDefault("refine.normalize_by_length", cfg.Refine.NormalizeByLength)
	}
}
