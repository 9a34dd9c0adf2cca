package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "cursors.yml"

// Config holds all configuration for the cursor generator.
type Config struct {
	Dirs        DirsConfig   `yaml:"dirs"`
	Resolutions []int        `yaml:"resolutions"`
	Render      RenderConfig `yaml:"render"`
	Manifest    []string     `yaml:"manifest"`
}

// DirsConfig names the directories the pipeline reads and writes.
type DirsConfig struct {
	Sources      string `yaml:"sources"`      // SVG inputs
	Intermediate string `yaml:"intermediate"` // rendered PNGs
	Output       string `yaml:"output"`       // finished cursors
}

// RenderConfig controls the external renderer invocation.
type RenderConfig struct {
	// Retries is how many times a crash-classified render is retried.
	// The crash frequency is empirical and version-dependent, so this
	// stays configurable rather than hard-coded.
	Retries int      `yaml:"retries"`
	Timeout Duration `yaml:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshalling from strings like "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Dirs: DirsConfig{
			Sources:      "svgs",
			Intermediate: "pngs",
			Output:       "cursors",
		},
		Resolutions: []int{32, 48, 64},
		Render: RenderConfig{
			Retries: 1,
			Timeout: Duration{2 * time.Minute},
		},
		Manifest: []string{
			"templates/install.inf",
			"templates/uninstall.cmd",
			"LICENSE.txt",
		},
	}
}

// Load reads the config file from the working directory and merges it
// with defaults.
func Load() (Config, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom reads config from a specific path.
// A missing file is not an error — defaults are used silently.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Defaults(), fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Dirs.Sources == "" || c.Dirs.Intermediate == "" || c.Dirs.Output == "" {
		return fmt.Errorf("dirs must not be empty")
	}
	if len(c.Resolutions) == 0 {
		return fmt.Errorf("at least one resolution is required")
	}
	for _, res := range c.Resolutions {
		if res < 1 || res > 256 {
			return fmt.Errorf("resolution must be between 1 and 256, got %d", res)
		}
	}
	if c.Render.Retries < 0 || c.Render.Retries > 10 {
		return fmt.Errorf("render.retries must be between 0 and 10, got %d", c.Render.Retries)
	}
	if t := c.Render.Timeout.Duration; t < 10*time.Second || t > 30*time.Minute {
		return fmt.Errorf("render.timeout must be between 10s and 30m, got %s", t)
	}
	return nil
}
