package grid

import (
	"fmt"
	"os"
	"strings"

	"github.com/Maxime2/finitediff"
	"github.com/sgostarter/i/l"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of refinement and rebalancing.
//
// Example:
//
//	// From a YAML file
//	cfg, err := grid.LoadConfig("./grid.yaml")
//
//	// From the environment, e.g. FINITEDIFF_NTRAIL=3
//	cfg, err := grid.LoadFromEnv("FINITEDIFF")
//
//	s, err := grid.Refine(x, cb, nil, []int{16, 16}, grid.WithConfig(cfg))
type Config struct {
	// NTrail is the number of points used by look-ahead extrapolation.
	NTrail int `yaml:"ntrail"`
	// BlursForward and BlursBackward are the fractions of each residual
	// shared with the neighbours at distance 1, 2, ...
	BlursForward  []float64 `yaml:"blurs_forward"`
	BlursBackward []float64 `yaml:"blurs_backward"`
	// ATol and RTol enable the early exit when set.
	ATol *float64 `yaml:"atol"`
	RTol *float64 `yaml:"rtol"`
	// SNR de-weights residuals that look like sampling noise.
	SNR bool `yaml:"snr"`
	// ExtremumMode is "", "max" or "min"; ExtremumPoints is the number of
	// points inserted on each side of the extremum.
	ExtremumMode   string `yaml:"extremum"`
	ExtremumPoints int    `yaml:"extremum_points"`
	// Extremum is the programmatic form of ExtremumMode. Setting both is an
	// error.
	Extremum *Extremum `yaml:"-"`

	// Base is the density floor of rebalancing as a fraction of the mean
	// error.
	Base float64 `yaml:"base"`
	// Num is the number of rebalanced points, 0 keeps the input size.
	Num int `yaml:"num"`
	// ResolutionFactor is the number of fine points per interval.
	ResolutionFactor int `yaml:"resolution_factor"`
	// SmoothFact scales the Gaussian width relative to the local spacing.
	SmoothFact float64 `yaml:"smooth_fact"`

	Logger l.Wrapper `yaml:"-"`
}

// DefaultConfig returns the defaults used when no options are given.
func DefaultConfig() *Config {
	return &Config{
		NTrail:           2,
		ExtremumPoints:   1,
		Base:             0.25,
		ResolutionFactor: 10,
		SmoothFact:       1.0,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFromEnv reads PREFIX_NTRAIL, PREFIX_BLURS_FORWARD, PREFIX_BLURS_BACKWARD
// (comma separated), PREFIX_ATOL, PREFIX_RTOL, PREFIX_SNR, PREFIX_EXTREMUM,
// PREFIX_EXTREMUM_POINTS, PREFIX_BASE, PREFIX_NUM, PREFIX_RESOLUTION_FACTOR
// and PREFIX_SMOOTH_FACT over the defaults. Unset variables keep defaults.
func LoadFromEnv(prefix string) (*Config, error) {
	cfg := DefaultConfig()
	env := func(key string) (string, bool) {
		return os.LookupEnv(prefix + "_" + key)
	}

	var err error
	setInt := func(key string, dst *int) {
		if v, ok := env(key); ok && err == nil {
			if *dst, err = cast.ToIntE(v); err != nil {
				err = fmt.Errorf("%s_%s: %w", prefix, key, err)
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := env(key); ok && err == nil {
			if *dst, err = cast.ToFloat64E(v); err != nil {
				err = fmt.Errorf("%s_%s: %w", prefix, key, err)
			}
		}
	}
	setOptional := func(key string, dst **float64) {
		if _, ok := env(key); ok {
			*dst = new(float64)
			setFloat(key, *dst)
		}
	}
	setFloats := func(key string, dst *[]float64) {
		v, ok := env(key)
		if !ok || err != nil || strings.TrimSpace(v) == "" {
			return
		}
		for _, part := range strings.Split(v, ",") {
			f, e := cast.ToFloat64E(strings.TrimSpace(part))
			if e != nil {
				err = fmt.Errorf("%s_%s: %w", prefix, key, e)
				return
			}
			*dst = append(*dst, f)
		}
	}

	setInt("NTRAIL", &cfg.NTrail)
	setFloats("BLURS_FORWARD", &cfg.BlursForward)
	setFloats("BLURS_BACKWARD", &cfg.BlursBackward)
	setOptional("ATOL", &cfg.ATol)
	setOptional("RTOL", &cfg.RTol)
	if v, ok := env("SNR"); ok && err == nil {
		if cfg.SNR, err = cast.ToBoolE(v); err != nil {
			err = fmt.Errorf("%s_SNR: %w", prefix, err)
		}
	}
	if v, ok := env("EXTREMUM"); ok {
		cfg.ExtremumMode = strings.ToLower(strings.TrimSpace(v))
	}
	setInt("EXTREMUM_POINTS", &cfg.ExtremumPoints)
	setFloat("BASE", &cfg.Base)
	setInt("NUM", &cfg.Num)
	setInt("RESOLUTION_FACTOR", &cfg.ResolutionFactor)
	setFloat("SMOOTH_FACT", &cfg.SmoothFact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", finitediff.ErrConfiguration, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.NTrail < 2:
		return fmt.Errorf("ntrail %d < 2: %w", c.NTrail, finitediff.ErrConfiguration)
	case c.ExtremumMode != "" && c.Extremum != nil:
		return fmt.Errorf("both extremum mode %q and extremum locator given: %w", c.ExtremumMode, finitediff.ErrConfiguration)
	case c.Extremum != nil && (c.Extremum.Locate == nil || c.Extremum.Predicate == nil):
		return fmt.Errorf("extremum locator or predicate missing: %w", finitediff.ErrConfiguration)
	case c.Extremum != nil && c.Extremum.N < 1:
		return fmt.Errorf("extremum points %d < 1: %w", c.Extremum.N, finitediff.ErrConfiguration)
	case c.ExtremumMode != "" && c.ExtremumMode != "max" && c.ExtremumMode != "min":
		return fmt.Errorf("unknown extremum mode %q: %w", c.ExtremumMode, finitediff.ErrConfiguration)
	case c.ExtremumPoints < 1:
		return fmt.Errorf("extremum points %d < 1: %w", c.ExtremumPoints, finitediff.ErrConfiguration)
	case c.ResolutionFactor < 1:
		return fmt.Errorf("resolution factor %d < 1: %w", c.ResolutionFactor, finitediff.ErrConfiguration)
	case !(c.SmoothFact > 0):
		return fmt.Errorf("smooth factor %v: %w", c.SmoothFact, finitediff.ErrConfiguration)
	case c.Base < 0:
		return fmt.Errorf("negative base %v: %w", c.Base, finitediff.ErrConfiguration)
	case c.Num < 0 || c.Num == 1:
		return fmt.Errorf("num %d: %w", c.Num, finitediff.ErrConfiguration)
	}
	return nil
}

// extremum resolves the configured extremum refinement, nil if disabled.
func (c *Config) extremum() *Extremum {
	switch {
	case c.Extremum != nil:
		return c.Extremum
	case c.ExtremumMode == "max":
		e := ExtremumMax(c.ExtremumPoints)
		return &e
	case c.ExtremumMode == "min":
		e := ExtremumMin(c.ExtremumPoints)
		return &e
	}
	return nil
}

func (c *Config) logger(cls string) l.Wrapper {
	logger := c.Logger
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}
	return logger.WithFields(l.StringField(l.ClsKey, cls))
}

// Option adjusts a Config.
type Option func(*Config)

func newConfig(opts []Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, cfg.validate()
}

// WithConfig replaces the whole configuration. Later options still apply.
// A nil cfg keeps the defaults.
func WithConfig(cfg *Config) Option {
	return func(c *Config) {
		if cfg != nil {
			*c = *cfg
		}
	}
}

func WithNTrail(n int) Option {
	return func(c *Config) { c.NTrail = n }
}

func WithBlurs(forward, backward []float64) Option {
	return func(c *Config) { c.BlursForward, c.BlursBackward = forward, backward }
}

func WithATol(atol float64) Option {
	return func(c *Config) { c.ATol = &atol }
}

func WithRTol(rtol float64) Option {
	return func(c *Config) { c.RTol = &rtol }
}

func WithSNR(snr bool) Option {
	return func(c *Config) { c.SNR = snr }
}

func WithExtremum(e Extremum) Option {
	return func(c *Config) { c.Extremum = &e }
}

func WithBase(base float64) Option {
	return func(c *Config) { c.Base = base }
}

func WithNum(num int) Option {
	return func(c *Config) { c.Num = num }
}

func WithResolutionFactor(f int) Option {
	return func(c *Config) { c.ResolutionFactor = f }
}

func WithSmoothFact(f float64) Option {
	return func(c *Config) { c.SmoothFact = f }
}

func WithLogger(logger l.Wrapper) Option {
	return func(c *Config) { c.Logger = logger }
}
