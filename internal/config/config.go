// Package config loads the FuzzyDatabaseConfig from defaults, a YAML file,
// environment variables, and command-line flags, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// GroupSpec maps a group name to its "Header(weight)" entries, parsed by
// internal/backbone.
type GroupSpec map[string][]string

// LinkSpec accepts either a string or a list of strings per key in YAML;
// internal/backbone normalizes every value to a list via Links.
type LinkSpec map[string]any

// BackboneConfiguration is the wire shape of the Backbone's configuration
// section (spec.md §6).
type BackboneConfiguration struct {
	ReferenceGroups GroupSpec `yaml:"reference_groups"`
	TargetGroups    GroupSpec `yaml:"target_groups"`
	RefToTgt        LinkSpec  `yaml:"ref_to_tgt"`
	TgtToRef        LinkSpec  `yaml:"tgt_to_ref"`
	ReferenceKeyCol string    `yaml:"reference_key_col"`
	TargetKeyCol    string    `yaml:"target_key_col"`
}

// DataToConsume names the two tabular inputs.
type DataToConsume struct {
	ReferenceTable string `yaml:"ReferenceTable"`
	MessyTable     string `yaml:"MessyTable"`
}

// Specification is the root FuzzyDatabaseConfig.
type Specification struct {
	Backbone            BackboneConfiguration `yaml:"BackboneConfiguration"`
	Data                DataToConsume          `yaml:"DataToConsume"`
	OperatingDir        string                 `yaml:"OperatingDir" split_words:"true"`
	RegexPreprocessing  map[string]string      `yaml:"RegexPreprocessing"`

	LogLevel    string  `yaml:"logLevel" split_words:"true"`
	DiffPercent float64 `yaml:"diffPercent" split_words:"true"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "FUZZYDB"

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load resolves config with precedence defaults < YAML < env < flags.
// configPath may be ""; if so, Load auto-discovers a config file.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/fuzzydb.yaml",
				"config/config.yaml",
				"./fuzzydb.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	if strings.TrimSpace(cfg.Data.ReferenceTable) == "" {
		return Specification{}, fmt.Errorf("reference table path is required (DataToConsume.ReferenceTable)")
	}
	if strings.TrimSpace(cfg.Data.MessyTable) == "" {
		return Specification{}, fmt.Errorf("messy table path is required (DataToConsume.MessyTable)")
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OperatingDir == "" {
		cfg.OperatingDir = "."
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("reference-table", c.Data.ReferenceTable, "Path to the reference CSV table")
	fs.String("messy-table", c.Data.MessyTable, "Path to the messy (query) CSV table")
	fs.String("operating-dir", c.OperatingDir, "Directory for output artifacts")
	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.Float64("diff-percent", c.DiffPercent, "Collision rearranger promotion threshold")

	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if fs.Changed(name) {
			v, _ := fs.GetFloat64(name)
			*dst = v
		}
	}

	setStr("reference-table", &c.Data.ReferenceTable)
	setStr("messy-table", &c.Data.MessyTable)
	setStr("operating-dir", &c.OperatingDir)
	setStr("log-level", &c.LogLevel)
	setFloat("diff-percent", &c.DiffPercent)
}

func setDefaults(c *Specification) {
	c.LogLevel = "info"
	c.OperatingDir = "."
	c.DiffPercent = 0.05
}

// Links normalizes a LinkSpec value (string or list) to a []string.
func (l LinkSpec) Links(name string) []string {
	v, ok := l[name]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
