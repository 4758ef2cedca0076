package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "CASCADE_"

// Load reads the configuration from path, or from cascade.yaml in the
// working directory when path is empty. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is like Load and then applies the flags of fs that were set
// on the command line. Flag names map onto keys by replacing dashes with
// underscores and the first underscore with a dot, so --database-url sets
// database.url and --session-cache-capacity sets session.cache_capacity.
func LoadWithFlags(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// 2. Config file
	used := findFile(path)
	if path != "" && used == "" {
		return nil, fmt.Errorf("config: file %s not found", path)
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", used, err)
		}
	}

	// 3. Environment: CASCADE_SESSION__CACHE_CAPACITY -> session.cache_capacity
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	// 4. Flags
	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findFile(path string) string {
	candidates := []string{DefaultFile, DefaultFileAlt}
	if path != "" {
		candidates = []string{path}
	}
	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func flagKey(name string) string {
	return strings.Replace(strings.ReplaceAll(name, "-", "_"), "_", ".", 1)
}
