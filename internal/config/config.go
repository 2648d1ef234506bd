package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/povring/internal/pixbuf"
	"github.com/coreman2200/povring/internal/revolution"
)

type SPI struct {
	Dev      string `yaml:"dev"`       // spireg name, "" for the first port
	Speed    string `yaml:"speed"`     // e.g. 48MHz
	LSBFirst bool   `yaml:"lsb_first"` // shift the least significant bit first
}

type Pins struct {
	Sensor       string `yaml:"sensor"`        // hall sensor, active low
	Latch        string `yaml:"latch"`         // driver chip latch strobe
	OutputEnable string `yaml:"output_enable"` // active low
}

type Sim struct {
	PeriodMs int `yaml:"period_ms"` // simulated revolution period
}

// Preview selects where the sim driver draws the latched column.
type Preview struct {
	Drawer string `yaml:"drawer"` // "screen" | "nrzled"
	Dev    string `yaml:"dev"`    // spireg name of the bench strip
	Speed  string `yaml:"speed"`  // strip bit clock
}

type Diag struct {
	Addr       string `yaml:"addr"`
	IntervalMs int    `yaml:"interval_ms"`
	StallMs    int    `yaml:"stall_ms"`
}

type Config struct {
	Driver    string `yaml:"driver"` // "spi" | "sim"
	Rotating  bool   `yaml:"rotating"`
	Waterfall bool   `yaml:"waterfall"`

	Image   string `yaml:"image,omitempty"`   // raw 6000-byte image file
	Pattern string `yaml:"pattern,omitempty"` // used when image is empty

	LatchHoldUs int    `yaml:"latch_hold_us"`
	LogLevel    string `yaml:"log_level"`

	SPI  SPI  `yaml:"spi"`
	Pins Pins `yaml:"pins"`
	Sim     Sim     `yaml:"sim"`
	Preview Preview `yaml:"preview"`
	Diag    Diag    `yaml:"diag"`
}

// Default matches the ring as built.
func Default() *Config {
	return &Config{
		Driver:      "spi",
		Pattern:     string(pixbuf.IndexSweep),
		LatchHoldUs: 1,
		LogLevel:    "info",
		SPI:         SPI{Speed: "48MHz"},
		Pins:        Pins{Sensor: "GPIO20", Latch: "GPIO5", OutputEnable: "GPIO4"},
		Sim:         Sim{PeriodMs: 20},
		Preview:     Preview{Drawer: "screen", Speed: "2500kHz"},
		Diag:        Diag{Addr: ":8080", IntervalMs: 250, StallMs: 1000},
	}
}

// Load reads path over the defaults, so a partial file is enough.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks the values that would otherwise fail at start-up.
func (c *Config) Validate() error {
	var errs []error
	switch c.Driver {
	case "spi", "sim":
	default:
		errs = append(errs, fmt.Errorf("driver must be spi or sim, got %q", c.Driver))
	}
	if _, err := c.Frequency(); err != nil {
		errs = append(errs, err)
	}
	switch c.Preview.Drawer {
	case "screen":
	case "nrzled":
		if _, err := c.StripFrequency(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("preview.drawer must be screen or nrzled, got %q", c.Preview.Drawer))
	}
	if c.Image == "" {
		if _, err := pixbuf.Pattern(pixbuf.Kind(c.Pattern)); err != nil {
			errs = append(errs, err)
		}
	}
	if c.LatchHoldUs < 0 {
		errs = append(errs, fmt.Errorf("latch_hold_us must not be negative"))
	}
	if c.Sim.PeriodMs <= 0 {
		errs = append(errs, fmt.Errorf("sim.period_ms must be positive"))
	}
	if c.Diag.IntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("diag.interval_ms must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Frequency parses spi.speed.
func (c *Config) Frequency() (physic.Frequency, error) {
	return frequency("spi.speed", c.SPI.Speed)
}

// StripFrequency parses preview.speed.
func (c *Config) StripFrequency() (physic.Frequency, error) {
	return frequency("preview.speed", c.Preview.Speed)
}

func frequency(key, s string) (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, s, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s %q must be positive", key, s)
	}
	return f, nil
}

// Options returns the fixed revolution options.
func (c *Config) Options() revolution.Options {
	return revolution.Options{Rotating: c.Rotating, Waterfall: c.Waterfall}
}

func (c *Config) LatchHold() time.Duration { return time.Duration(c.LatchHoldUs) * time.Microsecond }

func (c *Config) SimPeriod() time.Duration { return time.Duration(c.Sim.PeriodMs) * time.Millisecond }

func (c *Config) DiagInterval() time.Duration {
	return time.Duration(c.Diag.IntervalMs) * time.Millisecond
}

func (c *Config) StallAfter() time.Duration { return time.Duration(c.Diag.StallMs) * time.Millisecond }
