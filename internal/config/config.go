package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUpscale        = 1.1
	DefaultDownscale      = 0.9
	DefaultUpdateDistance = 2700.0
	DefaultMaxCTE         = 3.0
	DefaultThrottle       = 0.2
	DefaultAddr           = ":4567"
	DefaultPath           = "/"
	DefaultDt             = 0.02
	DefaultDuration       = 1200.0
	DefaultSpeed          = 20.0
	DefaultWheelbase      = 2.67
	DefaultMaxSteerDeg    = 25.0
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the full pidtune configuration.
type Config struct {
	Tuning Tuning `yaml:"tuning"`
	Server Server `yaml:"server"`
	Sim    Sim    `yaml:"sim"`
	Log    Log    `yaml:"log"`
}

// Tuning configures the controller, the twiddle search and the evaluation
// windows. Parameter vectors are ordered (P, D, I).
type Tuning struct {
	InitialParams  [3]float64 `yaml:"initial_params"`
	InitialDP      [3]float64 `yaml:"initial_dp"`
	Upscale        float64    `yaml:"upscale"`
	Downscale      float64    `yaml:"downscale"`
	StartIndex     int        `yaml:"start_index"`
	UpdateDistance float64    `yaml:"update_distance"`
	MaxCTE         float64    `yaml:"max_cte"`
	Throttle       float64    `yaml:"throttle"`
	ResetIntegral  bool       `yaml:"reset_integral"`
	ClampSteering  bool       `yaml:"clamp_steering"`
	MaxWindows     int        `yaml:"max_windows"`
}

type Server struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Sim configures the offline vehicle simulator.
type Sim struct {
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Speed       float64 `yaml:"speed"`
	Wheelbase   float64 `yaml:"wheelbase"`
	MaxSteerDeg float64 `yaml:"max_steer_deg"`
	Amplitude   float64 `yaml:"amplitude"`
	Wavelength  float64 `yaml:"wavelength"`
	InitialCTE  float64 `yaml:"initial_cte"`
	Noise       float64 `yaml:"noise"`
	Seed        int64   `yaml:"seed"`
	Integrator  string  `yaml:"integrator"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Tuning: Tuning{
			InitialParams:  [3]float64{0.496113, 9.69385, 0.000253635},
			InitialDP:      [3]float64{0.05, 0.3, 0.00005},
			Upscale:        DefaultUpscale,
			Downscale:      DefaultDownscale,
			StartIndex:     0,
			UpdateDistance: DefaultUpdateDistance,
			MaxCTE:         DefaultMaxCTE,
			Throttle:       DefaultThrottle,
		},
		Server: Server{
			Addr: DefaultAddr,
			Path: DefaultPath,
		},
		Sim: Sim{
			Dt:          DefaultDt,
			Duration:    DefaultDuration,
			Speed:       DefaultSpeed,
			Wheelbase:   DefaultWheelbase,
			MaxSteerDeg: DefaultMaxSteerDeg,
			Amplitude:   6.0,
			Wavelength:  300.0,
			InitialCTE:  1.0,
			Seed:        1,
			Integrator:  "rk4",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Tuning.Validate(); err != nil {
		return err
	}
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return invalid("log.format", c.Log.Format)
	}
	if c.Server.Addr == "" {
		return invalid("server.addr", c.Server.Addr)
	}
	return nil
}

func (t Tuning) Validate() error {
	for i, d := range t.InitialDP {
		if d < 0 {
			return invalid(fmt.Sprintf("tuning.initial_dp[%d]", i), d)
		}
	}
	if t.Upscale <= 1 {
		return invalid("tuning.upscale", t.Upscale)
	}
	if t.Downscale <= 0 || t.Downscale >= 1 {
		return invalid("tuning.downscale", t.Downscale)
	}
	if t.StartIndex < 0 || t.StartIndex > 2 {
		return invalid("tuning.start_index", t.StartIndex)
	}
	if t.UpdateDistance <= 0 {
		return invalid("tuning.update_distance", t.UpdateDistance)
	}
	if t.MaxCTE <= 0 {
		return invalid("tuning.max_cte", t.MaxCTE)
	}
	if t.MaxWindows < 0 {
		return invalid("tuning.max_windows", t.MaxWindows)
	}
	return nil
}

func (s Sim) Validate() error {
	if s.Dt <= 0 {
		return invalid("sim.dt", s.Dt)
	}
	if s.Duration <= 0 {
		return invalid("sim.duration", s.Duration)
	}
	if s.Speed <= 0 {
		return invalid("sim.speed", s.Speed)
	}
	if s.Wheelbase <= 0 {
		return invalid("sim.wheelbase", s.Wheelbase)
	}
	if s.MaxSteerDeg <= 0 || s.MaxSteerDeg >= 90 {
		return invalid("sim.max_steer_deg", s.MaxSteerDeg)
	}
	if s.Wavelength <= 0 {
		return invalid("sim.wavelength", s.Wavelength)
	}
	if s.Noise < 0 {
		return invalid("sim.noise", s.Noise)
	}
	switch s.Integrator {
	case "euler", "rk4":
	default:
		return invalid("sim.integrator", s.Integrator)
	}
	return nil
}

func invalid(field string, v any) error {
	return fmt.Errorf("%w: %s = %v", ErrInvalid, field, v)
}
