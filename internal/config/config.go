// Package config loads specview settings from YAML.
package config

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/olivier-w/specview/internal/analysis"
	"github.com/olivier-w/specview/internal/spectrogram"
)

// Config is the complete viewer configuration.
type Config struct {
	History int `yaml:"history"` // ring capacity in columns
	Bins    int `yaml:"bins"`    // rows per column

	FFTSize        int     `yaml:"fft_size"`
	HopSize        int     `yaml:"hop_size"`
	FloorDB        float64 `yaml:"floor_db"`
	CeilingDB      float64 `yaml:"ceiling_db"`
	FrequencyScale string  `yaml:"frequency_scale"` // log, linear

	Contrast    float64  `yaml:"contrast"`
	Opacity     float64  `yaml:"opacity"`
	Denoise     bool     `yaml:"denoise"`
	PaletteMode string   `yaml:"palette_mode"` // gradient, stops
	Palette     []string `yaml:"palette"`      // #rrggbb or #rrggbbaa
	Background  string   `yaml:"background"`
	Regime      string   `yaml:"regime"` // bounded, exact

	FPS int `yaml:"fps"`
}

// Default returns the built-in configuration.
func Default() Config {
	stops := make([]string, len(spectrogram.DefaultStops))
	for i, c := range spectrogram.DefaultStops {
		stops[i] = FormatHex(c)
	}
	return Config{
		History:        1024,
		Bins:           256,
		FFTSize:        4096,
		HopSize:        1024,
		FloorDB:        -96,
		CeilingDB:      0,
		FrequencyScale: "log",
		Contrast:       1.4,
		Opacity:        0.95,
		PaletteMode:    "gradient",
		Palette:        stops,
		Background:     "#000000",
		Regime:         "bounded",
		FPS:            30,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Ring size limits. History outside them is rejected by Validate and
// clamped by the viewer's history keys.
const (
	MinHistory = 64
	MaxHistory = 16384
	MaxBins    = 4096
)

// Validate checks every field of cfg.
func Validate(cfg *Config) error {
	switch {
	case cfg.History < MinHistory || cfg.History > MaxHistory:
		return fmt.Errorf("history must be within [%d,%d], got %d", MinHistory, MaxHistory, cfg.History)
	case cfg.Bins <= 0 || cfg.Bins > MaxBins:
		return fmt.Errorf("bins must be within [1,%d], got %d", MaxBins, cfg.Bins)
	case cfg.FFTSize < 16:
		return fmt.Errorf("fft_size must be at least 16, got %d", cfg.FFTSize)
	case cfg.HopSize <= 0:
		return fmt.Errorf("hop_size must be positive, got %d", cfg.HopSize)
	case math.IsNaN(cfg.FloorDB) || math.IsNaN(cfg.CeilingDB) || cfg.CeilingDB <= cfg.FloorDB:
		return fmt.Errorf("ceiling_db %v must be above floor_db %v", cfg.CeilingDB, cfg.FloorDB)
	case math.IsNaN(cfg.Contrast) || cfg.Contrast < spectrogram.MinContrast:
		return fmt.Errorf("contrast must be at least %v, got %v", spectrogram.MinContrast, cfg.Contrast)
	case math.IsNaN(cfg.Opacity) || cfg.Opacity < 0 || cfg.Opacity > 1:
		return fmt.Errorf("opacity must be within [0,1], got %v", cfg.Opacity)
	case cfg.FPS < 1 || cfg.FPS > 240:
		return fmt.Errorf("fps must be within [1,240], got %d", cfg.FPS)
	case len(cfg.Palette) < 2:
		return fmt.Errorf("palette needs at least 2 stops, got %d", len(cfg.Palette))
	}

	if _, err := analysis.ParseScale(cfg.FrequencyScale); err != nil {
		return err
	}
	if _, err := ParsePaletteMode(cfg.PaletteMode); err != nil {
		return err
	}
	if _, err := ParseRegime(cfg.Regime); err != nil {
		return err
	}
	for i, s := range cfg.Palette {
		if _, err := ParseHex(s); err != nil {
			return fmt.Errorf("palette stop %d: %w", i, err)
		}
	}
	if _, err := ParseHex(cfg.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	return nil
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q", s)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatHex renders c as #rrggbb, or #rrggbbaa when not opaque.
func FormatHex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParsePaletteMode accepts "gradient" or "stops".
func ParsePaletteMode(s string) (spectrogram.PaletteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gradient":
		return spectrogram.PaletteGradient, nil
	case "stops":
		return spectrogram.PaletteStops, nil
	default:
		return spectrogram.PaletteGradient, fmt.Errorf("unknown palette mode %q", s)
	}
}

// ParseRegime accepts "bounded" or "exact".
func ParseRegime(s string) (spectrogram.Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bounded":
		return spectrogram.RegimeBounded, nil
	case "exact":
		return spectrogram.RegimeExact, nil
	default:
		return spectrogram.RegimeBounded, fmt.Errorf("unknown regime %q", s)
	}
}

// BuildPalette returns the configured palette with opacity applied to
// every stop.
func (c *Config) BuildPalette() (*spectrogram.Palette, error) {
	mode, err := ParsePaletteMode(c.PaletteMode)
	if err != nil {
		return nil, err
	}
	stops := make([]color.NRGBA, len(c.Palette))
	for i, s := range c.Palette {
		stop, err := ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("palette stop %d: %w", i, err)
		}
		stops[i] = spectrogram.WithOpacity(stop, c.Opacity)
	}
	return spectrogram.NewPalette(stops, mode), nil
}

// BackgroundColor returns the background with opacity applied.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	bg, err := ParseHex(c.Background)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("background: %w", err)
	}
	return spectrogram.WithOpacity(bg, c.Opacity), nil
}

// Analysis returns the analyzer settings for a stream at sampleRate.
func (c *Config) Analysis(sampleRate int) (analysis.Config, error) {
	scale, err := analysis.ParseScale(c.FrequencyScale)
	if err != nil {
		return analysis.Config{}, err
	}
	return analysis.Config{
		FFTSize:    c.FFTSize,
		Bins:       c.Bins,
		SampleRate: float64(sampleRate),
		FloorDB:    c.FloorDB,
		CeilingDB:  c.CeilingDB,
		Scale:      scale,
	}, nil
}
