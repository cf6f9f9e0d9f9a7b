package grove

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration read from YAML.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Grid    GridConfig    `yaml:"grid"`
	Log     LogConfig     `yaml:"log"`
	Physics PhysicsConfig `yaml:"physics"`
}

// WindowConfig describes the output surface.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	TPS       int    `yaml:"tps"`
}

// CameraConfig holds projection defaults and the initial camera pose.
type CameraConfig struct {
	FieldOfView float64    `yaml:"fov"`
	Near        float64    `yaml:"near"`
	Far         float64    `yaml:"far"`
	Position    [3]float64 `yaml:"position"`
	Rotation    [3]float64 `yaml:"rotation"`
}

// GridConfig describes a hexagonal grid.
type GridConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Size   float64 `yaml:"size"`
}

// LogConfig configures the zap logger built by NewLogger.
type LogConfig struct {
	// Level is one of debug, log, warning, error, exception (or the zap
	// level names info, warn, dpanic).
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"` // json or console
	Development bool   `yaml:"development"`
	Debug       bool   `yaml:"debug"` // enables Scene debug mode
}

// PhysicsConfig configures the physics world.
type PhysicsConfig struct {
	Enabled bool       `yaml:"enabled"`
	Gravity [3]float64 `yaml:"gravity"`
	Damping float64    `yaml:"damping"`
	GroundY float64    `yaml:"ground_y"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Title: "grove", Width: 1280, Height: 720, Resizable: true, TPS: 60},
		Camera: CameraConfig{
			FieldOfView: DefaultFieldOfView,
			Near:        DefaultNear,
			Far:         DefaultFar,
			Position:    [3]float64{0, 9, -7},
			Rotation:    [3]float64{55, 0, 0},
		},
		Grid:    GridConfig{Width: 7, Height: 7, Size: 1},
		Log:     LogConfig{Level: "log", Encoding: "console"},
		Physics: PhysicsConfig{Gravity: [3]float64{0, -9.81, 0}, Damping: 0.01},
	}
}

// LoadConfig decodes YAML over DefaultConfig and validates the result.
// Unknown fields are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("grove: invalid config")

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Camera.FieldOfView <= 0 || c.Camera.FieldOfView >= 180:
		return fmt.Errorf("%w: camera fov %v", ErrInvalidConfig, c.Camera.FieldOfView)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera clip range [%v, %v]", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	case c.Grid.Width <= 0 || c.Grid.Height <= 0 || c.Grid.Size <= 0:
		return fmt.Errorf("%w: grid %dx%d size %v", ErrInvalidConfig, c.Grid.Width, c.Grid.Height, c.Grid.Size)
	case c.Physics.Damping < 0 || c.Physics.Damping > 1:
		return fmt.Errorf("%w: physics damping %v", ErrInvalidConfig, c.Physics.Damping)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log encoding %q", ErrInvalidConfig, c.Log.Encoding)
	}
	return nil
}

// ParseLogLevel maps a debug-channel severity to a zap level:
// log→info, warning→warn, error→error, exception→dpanic.
func ParseLogLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "log", "info":
		return zap.InfoLevel, nil
	case "warning", "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "exception", "dpanic":
		return zap.DPanicLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}
	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    !cfg.Development,
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Named("grove"), nil
}
