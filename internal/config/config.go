// Package config handles configuration loading from a TOML file,
// environment variables and command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/logging"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

var log = logging.For("config")

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DOODLE_"

// Config holds all settings of the application.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas" envPrefix:"CANVAS_"`
	Brush    BrushConfig    `toml:"brush" envPrefix:"BRUSH_"`
	Playback PlaybackConfig `toml:"playback" envPrefix:"PLAYBACK_"`
	Storage  StorageConfig  `toml:"storage" envPrefix:"STORAGE_"`
	Share    ShareConfig    `toml:"share" envPrefix:"SHARE_"`
	Logging  LoggingConfig  `toml:"logging" envPrefix:"LOG_"`
}

// CanvasConfig sizes new canvases and their keyframe cache.
type CanvasConfig struct {
	Width            int    `toml:"width" env:"WIDTH"`
	Height           int    `toml:"height" env:"HEIGHT"`
	Background       string `toml:"background" env:"BACKGROUND"` // #RRGGBB or #AARRGGBB
	KeyframeInterval int    `toml:"keyframe_interval" env:"KEYFRAME_INTERVAL"`
	KeyframeCapacity int    `toml:"keyframe_capacity" env:"KEYFRAME_CAPACITY"`
}

// BrushConfig is the brush selected at startup.
type BrushConfig struct {
	Kind  string  `toml:"kind" env:"KIND"` // "pen", "marker", "eraser"
	Color string  `toml:"color" env:"COLOR"`
	Size  float32 `toml:"size" env:"SIZE"`
	Alpha int     `toml:"alpha" env:"ALPHA"`
}

// PlaybackConfig holds replay settings.
type PlaybackConfig struct {
	Delay            Duration `toml:"delay" env:"DELAY"`
	IgnoreEmptySteps bool     `toml:"ignore_empty_steps" env:"IGNORE_EMPTY_STEPS"`
	AutoPlay         bool     `toml:"auto_play" env:"AUTO_PLAY"`
}

// StorageConfig selects where sessions are kept.
type StorageConfig struct {
	Type string `toml:"type" env:"TYPE"` // "file", "sqlite"
	Path string `toml:"path" env:"PATH"` // directory or database file
}

// ShareConfig controls the read-only spectator stream.
type ShareConfig struct {
	Enabled   bool   `toml:"enabled" env:"ENABLED"`
	Addr      string `toml:"addr" env:"ADDR"`
	Advertise bool   `toml:"advertise" env:"ADVERTISE"`
	Name      string `toml:"name" env:"NAME"`
	// Discovery bounds the mDNS lookup of watch.
	Discovery Duration `toml:"discovery" env:"DISCOVERY"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `toml:"format" env:"FORMAT"` // "text", "json"
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:            1200,
			Height:           800,
			Background:       "#FFFFFF",
			KeyframeInterval: 8,
			KeyframeCapacity: 4,
		},
		Brush: BrushConfig{
			Kind:  "pen",
			Color: "#000000",
			Size:  6,
			Alpha: 255,
		},
		Playback: PlaybackConfig{
			Delay:            Duration(50 * time.Millisecond),
			IgnoreEmptySteps: true,
			AutoPlay:         true,
		},
		Storage: StorageConfig{
			Type: "file",
			Path: "doodles",
		},
		Share: ShareConfig{
			Addr:      ":7070",
			Advertise: true,
			Discovery: Duration(3 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the TOML file named by
// -config (default doodleboard.toml, ignored when missing), DOODLE_*
// environment variables and flags, in increasing priority. It returns the
// arguments left after the flags.
func Load(args []string, stderr io.Writer) (*Config, []string, error) {
	cfg := DefaultConfig()

	fset := flag.NewFlagSet("doodleboard", flag.ContinueOnError)
	if stderr != nil {
		fset.SetOutput(stderr)
	}
	configPath := fset.String("config", "doodleboard.toml", "TOML configuration file")

	width := fset.Int("width", 0, "Canvas width in pixels")
	height := fset.Int("height", 0, "Canvas height in pixels")
	background := fset.String("background", "", "Canvas background colour (#RRGGBB)")

	storage := fset.String("storage", "", "Storage type: file, sqlite")
	storagePath := fset.String("storage-path", "", "Session directory or SQLite database path")

	delay := fset.Duration("delay", 0, "Delay between replayed steps")

	share := fset.Bool("share", false, "Stream the board read-only to viewers")
	shareAddr := fset.String("share-addr", "", "Listen address of the spectator stream")

	logLevel := fset.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fset.String("log-format", "", "Log format: text, json")

	if err := fset.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := cfg.loadTOML(*configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load %s: %w", *configPath, err)
	}

	if err := cfg.applyEnv(nil); err != nil {
		return nil, nil, err
	}

	// Only flags given on the command line override.
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Canvas.Width = *width
		case "height":
			cfg.Canvas.Height = *height
		case "background":
			cfg.Canvas.Background = *background
		case "storage":
			cfg.Storage.Type = *storage
		case "storage-path":
			cfg.Storage.Path = *storagePath
		case "delay":
			cfg.Playback.Delay = Duration(*delay)
		case "share":
			cfg.Share.Enabled = *share
		case "share-addr":
			cfg.Share.Addr = *shareAddr
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fset.Args(), nil
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warn("unknown configuration keys", "file", path, "keys", undecoded)
	}
	return nil
}

// applyEnv applies DOODLE_* overrides. environ replaces the process
// environment when not nil.
func (c *Config) applyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Canvas.KeyframeInterval < 1 {
		errs = append(errs, fmt.Errorf("keyframe interval %d must be at least 1", c.Canvas.KeyframeInterval))
	}
	if c.Canvas.KeyframeCapacity < 1 {
		errs = append(errs, fmt.Errorf("keyframe capacity %d must be at least 1", c.Canvas.KeyframeCapacity))
	}
	if _, err := ParseColor(c.Canvas.Background); err != nil {
		errs = append(errs, fmt.Errorf("canvas background: %w", err))
	}
	if _, err := c.Brush.New(); err != nil {
		errs = append(errs, err)
	}
	if c.Playback.Delay < 0 {
		errs = append(errs, fmt.Errorf("playback delay %s is negative", c.Playback.Delay))
	}
	switch c.Storage.Type {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage path is empty"))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// BackgroundColor returns the parsed canvas background.
func (c *CanvasConfig) BackgroundColor() brush.Color {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return brush.White
	}
	return bg
}

// New builds the configured brush.
func (b BrushConfig) New() (*brush.Brush, error) {
	kind, err := ParseKind(b.Kind)
	if err != nil {
		return nil, err
	}
	c, err := ParseColor(b.Color)
	if err != nil {
		return nil, fmt.Errorf("brush colour: %w", err)
	}
	if b.Size <= 0 {
		return nil, fmt.Errorf("brush size %g must be positive", b.Size)
	}
	if b.Alpha < 0 || b.Alpha > 255 {
		return nil, fmt.Errorf("brush alpha %d out of range 0-255", b.Alpha)
	}
	return brush.New(kind, c, b.Size, uint8(b.Alpha)), nil
}

// ParseKind resolves a registered brush kind by name.
func ParseKind(name string) (brush.Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range brush.Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown brush kind %q", name)
}

// ParseColor parses #RRGGBB (opaque) or #AARRGGBB.
func ParseColor(s string) (brush.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad colour %q", s)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return brush.Color(v), nil
}
