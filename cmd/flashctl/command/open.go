package command

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/flashboard"
	"github.com/mklimuk/flashboard/cmd/flashctl/console"
	"github.com/mklimuk/flashboard/config"
	"github.com/mklimuk/flashboard/memory/w25q128"
	flashspi "github.com/mklimuk/flashboard/spi"
)

// GlobalFlags select and tune the transport. Values given on the command
// line win over the config file.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "board config file (YAML)", EnvVars: []string{"FLASHCTL_CONFIG"}},
		&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "periph, ft232h, gobot or mock"},
		&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "SPI port, e.g. /dev/spidev0.0"},
		&cli.StringFlag{Name: "cs", Usage: "GPIO pin driving chip select (periph transport)"},
		&cli.Int64Flag{Name: "speed", Usage: "SPI clock in Hz"},
	}
}

// loadConfig merges the config file (or defaults) with global flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Read(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("cs") {
		cfg.ChipSelect = c.String("cs")
	}
	if c.IsSet("speed") {
		cfg.SpeedHz = c.Int64("speed")
	}
	return cfg, cfg.Validate()
}

func openBus(cfg config.Config) (flashboard.SPIBusCloser, error) {
	speed := physic.Frequency(cfg.SpeedHz) * physic.Hertz
	switch cfg.Transport {
	case config.TransportPeriph:
		return flashspi.NewGenericBus(cfg.Device, flashspi.WithSpeed(speed), flashspi.WithChipSelect(cfg.ChipSelect))
	case config.TransportFT232H:
		return flashspi.NewFT232HBus(flashspi.WithSpeed(speed))
	case config.TransportGobot:
		bus := flashspi.NewGobotBus(nanopi.NewNeoAdaptor(),
			flashspi.WithGobotBus(cfg.GobotBus),
			flashspi.WithGobotChip(cfg.GobotChip),
			flashspi.WithGobotSpeed(cfg.SpeedHz))
		if err := bus.Start(); err != nil {
			return nil, err
		}
		return bus, nil
	case config.TransportMock:
		return nopCloser{w25q128.NewMockChip(w25q128.JEDECWinbondW25Q128JV, int(cfg.Geometry.Capacity))}, nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}

type nopCloser struct {
	*w25q128.MockChip
}

func (nopCloser) Close() error { return nil }

// openFlash returns a ready handle and the function releasing its bus. With
// identify set the chip is woken and identified first.
func openFlash(c *cli.Context, identify bool) (*w25q128.Flash, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, console.Exit(console.ExitUsage, "%v", err)
	}
	bus, err := openBus(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open %s transport: %w", cfg.Transport, err)
	}
	release := func() {
		if err := bus.Close(); err != nil {
			slog.Warn("could not close bus", "error", err)
		}
	}
	opts := append(cfg.FlashOptions(), w25q128.WithLogger(slog.Default()))
	f, err := w25q128.New(bus, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	if identify {
		if err := f.Init(c.Context); err != nil {
			release()
			return nil, nil, err
		}
	}
	slog.Debug("flash opened", "transport", cfg.Transport, "device", cfg.Device)
	return f, release, nil
}
