// Package config loads annotator settings from an optional config file and
// ANNOTATOR_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"floorplan-annotator/internal/cone"
	"floorplan-annotator/internal/gesture"
	"floorplan-annotator/pkg/colorutil"

	"github.com/spf13/viper"
)

// FileName is the config file base name looked up in the config dir.
const FileName = "annotator"

// Config holds application configuration.
type Config struct {
	Gesture GestureConfig `mapstructure:"gesture"`
	Marker  MarkerConfig  `mapstructure:"marker"`
	Cone    ConeConfig    `mapstructure:"cone"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
}

// GestureConfig tunes pointer gesture recognition.
type GestureConfig struct {
	DragThreshold   float64       `mapstructure:"drag_threshold"`
	DoubleTapWindow time.Duration `mapstructure:"double_tap_window"`
	HandleOffset    float64       `mapstructure:"handle_offset"`
	HandleRadius    float64       `mapstructure:"handle_radius"`
	PlaceOn         string        `mapstructure:"place_on"` // "pointerdown" or "click"
}

// MarkerConfig holds marker sizing and icon lookup.
type MarkerConfig struct {
	HitSize  float64 `mapstructure:"hit_size"`
	IconSize float64 `mapstructure:"icon_size"`
	IconDir  string  `mapstructure:"icon_dir"`
}

// ConeConfig holds cone geometry and per-kind color overrides as hex
// strings ("#rrggbb" or "#rrggbbaa").
type ConeConfig struct {
	Span     float64           `mapstructure:"span"`
	Length   float64           `mapstructure:"length"`
	Segments int               `mapstructure:"segments"`
	Colors   map[string]string `mapstructure:"colors"`
}

// ExportConfig holds raster export settings.
type ExportConfig struct {
	Format string `mapstructure:"format"` // "png" or "jpeg"
	Dir    string `mapstructure:"dir"`    // where exports go; "" = next to the source
}

// OutputPath returns the default raster path for a document at source.
func (e ExportConfig) OutputPath(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + "." + e.Format
	if e.Dir == "" {
		return filepath.Join(filepath.Dir(source), name)
	}
	return filepath.Join(e.Dir, name)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	g := gesture.DefaultOptions()
	v.SetDefault("gesture.drag_threshold", g.DragThreshold)
	v.SetDefault("gesture.double_tap_window", g.DoubleTapWindow)
	v.SetDefault("gesture.handle_offset", g.HandleOffset)
	v.SetDefault("gesture.handle_radius", g.HandleRadius)
	v.SetDefault("gesture.place_on", "pointerdown")

	v.SetDefault("marker.hit_size", 32.0)
	v.SetDefault("marker.icon_size", 32.0)
	v.SetDefault("marker.icon_dir", "")

	v.SetDefault("cone.span", cone.DefaultSpan)
	v.SetDefault("cone.length", cone.DefaultLength)
	v.SetDefault("cone.segments", cone.DefaultSegments)
	v.SetDefault("cone.colors", map[string]string{})

	v.SetDefault("export.format", "png")
	v.SetDefault("export.dir", "")

	v.SetDefault("log.level", "info")
}

// DefaultDir returns ~/.config/floorplan-annotator, or "" if the user
// config dir is unknown.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home := os.Getenv("HOME")
		if home == "" {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "floorplan-annotator")
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always decode
	_ = v.Unmarshal(&c)
	return c
}

// Load reads configuration from annotator.{json,yaml,toml} in configDir, if
// present, then applies ANNOTATOR_ environment overrides such as
// ANNOTATOR_GESTURE_PLACE_ON=click. A missing file is not an error.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("ANNOTATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values that would otherwise fail later at use.
func (c Config) Validate() error {
	if _, err := gesture.ParsePlacementTrigger(c.Gesture.PlaceOn); err != nil {
		return fmt.Errorf("gesture.place_on: %w", err)
	}
	if c.Gesture.DragThreshold < 0 {
		return fmt.Errorf("gesture.drag_threshold must not be negative")
	}
	if c.Marker.HitSize <= 0 || c.Marker.IconSize <= 0 {
		return fmt.Errorf("marker sizes must be positive")
	}
	switch strings.ToLower(c.Export.Format) {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("export.format: unsupported %q", c.Export.Format)
	}
	if _, err := c.ConePalette(); err != nil {
		return err
	}
	return nil
}

// GestureOptions converts the gesture section into router options.
func (c Config) GestureOptions() gesture.Options {
	trigger, _ := gesture.ParsePlacementTrigger(c.Gesture.PlaceOn)
	return gesture.Options{
		DragThreshold:   c.Gesture.DragThreshold,
		DoubleTapWindow: c.Gesture.DoubleTapWindow,
		HandleOffset:    c.Gesture.HandleOffset,
		HandleRadius:    c.Gesture.HandleRadius,
		PlaceOn:         trigger,
	}
}

// ConeSpec returns the configured wedge geometry.
func (c Config) ConeSpec() cone.Spec {
	return cone.Spec{Span: c.Cone.Span, Length: c.Cone.Length}
}

// ConePalette parses the color overrides. Colors given without an alpha
// channel get the standard cone opacity.
func (c Config) ConePalette() (cone.Palette, error) {
	p := make(cone.Palette, len(c.Cone.Colors))
	for kind, hex := range c.Cone.Colors {
		col, err := colorutil.ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("cone.colors.%s: %w", kind, err)
		}
		if len(strings.TrimPrefix(strings.TrimSpace(hex), "#")) == 6 {
			col = colorutil.WithAlpha(col, cone.DefaultAlpha)
		}
		p[kind] = col
	}
	return p, nil
}
