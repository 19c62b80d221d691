// Package config loads the board description used by flashctl: how the flash
// chip is reached and what it is expected to be.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/flashboard/memory/w25q128"
)

const (
	TransportPeriph = "periph"
	TransportFT232H = "ft232h"
	TransportGobot  = "gobot"
	TransportMock   = "mock"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Transport  string `yaml:"transport"`
	Device     string `yaml:"device"`
	ChipSelect string `yaml:"chip_select,omitempty"`
	SpeedHz    int64  `yaml:"speed_hz"`

	// Gobot bus and chip numbers, used with the gobot transport only.
	GobotBus  int `yaml:"gobot_bus"`
	GobotChip int `yaml:"gobot_chip"`

	PollInterval      time.Duration    `yaml:"poll_interval"`
	BusyTimeout       time.Duration    `yaml:"busy_timeout"`
	UnboundedBusyWait bool             `yaml:"unbounded_busy_wait"`
	Manufacturer      byte             `yaml:"manufacturer"`
	Geometry          w25q128.Geometry `yaml:"geometry"`
}

func Default() Config {
	return Config{
		Transport:    TransportPeriph,
		Device:       "/dev/spidev0.0",
		SpeedHz:      10_000_000,
		Manufacturer: w25q128.DefaultManufacturer,
		Geometry:     w25q128.W25Q128,
	}
}

// Load reads and validates a config file.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read parses a YAML file on top of Default, so the file only needs the keys
// that differ. The result is not validated.
func Read(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportPeriph, TransportFT232H, TransportGobot, TransportMock:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	if c.Transport == TransportPeriph && c.Device == "" {
		return fmt.Errorf("%w: periph transport needs a device", ErrInvalidConfig)
	}
	if c.SpeedHz <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %d", ErrInvalidConfig, c.SpeedHz)
	}
	if c.PollInterval < 0 || c.BusyTimeout < 0 {
		return fmt.Errorf("%w: negative poll interval or busy timeout", ErrInvalidConfig)
	}
	if err := c.Geometry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// FlashOptions translates the config into driver options.
func (c Config) FlashOptions() []w25q128.Option {
	opts := []w25q128.Option{
		w25q128.WithGeometry(c.Geometry),
		w25q128.WithManufacturer(c.Manufacturer),
		w25q128.WithPollInterval(c.PollInterval),
	}
	switch {
	case c.UnboundedBusyWait:
		opts = append(opts, w25q128.WithBusyTimeout(0))
	case c.BusyTimeout > 0:
		opts = append(opts, w25q128.WithBusyTimeout(c.BusyTimeout))
	}
	return opts
}
