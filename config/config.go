// Package config loads captionkit settings. Later sources override
// earlier ones: built-in defaults, an optional YAML file, the environment
// (including a .env file) and finally command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"captionkit/caption"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "CAPTIONKIT_"

// Measurer names.
const (
	MeasureFont    = "font"
	MeasureBrowser = "browser"
)

// Config holds every tunable setting.
type Config struct {
	// Style.FontSize zero means derive it from the frame height.
	Style    caption.Style `yaml:"style"`
	Workers  int           `yaml:"workers"`
	Measurer string        `yaml:"measurer"`
	Language string        `yaml:"language"`
	Preset   string        `yaml:"preset"`
	Verbose  bool          `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Style: caption.Style{
			Font:           "Helvetica",
			Color:          "white",
			HighlightColor: "yellow",
			StrokeColor:    "black",
			StrokeWidth:    1.5,
		},
		Workers:  runtime.NumCPU(),
		Measurer: MeasureFont,
		Language: "en",
		Preset:   "medium",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. envFile, when it exists, is loaded
// into the environment first without overriding variables already set.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		if err := cfg.ReadYAML(f); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := cfg.FromEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ReadYAML overlays the settings present in r. Unknown keys are errors.
func (c *Config) ReadYAML(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// FromEnv overlays CAPTIONKIT_* variables found by lookup.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("FONT", &c.Style.Font)
	str("COLOR", &c.Style.Color)
	str("HIGHLIGHT_COLOR", &c.Style.HighlightColor)
	str("STROKE_COLOR", &c.Style.StrokeColor)
	str("MEASURER", &c.Measurer)
	str("LANG", &c.Language)
	str("PRESET", &c.Preset)

	if v, ok := lookup(EnvPrefix + "FONT_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sFONT_SIZE: %w", EnvPrefix, err)
		}
		c.Style.FontSize = n
	}
	if v, ok := lookup(EnvPrefix + "STROKE_WIDTH"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSTROKE_WIDTH: %w", EnvPrefix, err)
		}
		c.Style.StrokeWidth = f
	}
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "VERBOSE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERBOSE: %w", EnvPrefix, err)
		}
		c.Verbose = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	for _, col := range []string{c.Style.Color, c.Style.HighlightColor, c.Style.StrokeColor} {
		if _, err := caption.ParseColor(col); err != nil {
			return err
		}
	}
	switch {
	case c.Style.FontSize < 0:
		return fmt.Errorf("font size %d is negative", c.Style.FontSize)
	case c.Style.StrokeWidth < 0:
		return fmt.Errorf("stroke width %v is negative", c.Style.StrokeWidth)
	case c.Workers < 0:
		return fmt.Errorf("workers %d is negative", c.Workers)
	case c.Measurer != MeasureFont && c.Measurer != MeasureBrowser:
		return fmt.Errorf("unknown measurer %q (want %q or %q)", c.Measurer, MeasureFont, MeasureBrowser)
	}
	return nil
}
