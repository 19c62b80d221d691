// Package w25q128 drives Winbond W25Q128 (and compatible 24-bit address)
// serial NOR flash over any flashboard.SPIBus.
//
// The chip can only program bits from 1 to 0 within a 256 byte page, and only
// an erase of a whole 4KB sector (or 32/64KB block) restores them to 1. Write
// hides that: it reads each touched sector, erases it only when the target
// range is not blank, merges the new data into the sector image and programs
// it back, so bytes outside the requested range are never lost.
//
// Datasheet reference: Winbond W25Q128JV (8.1.2 Instruction Set Table 1,
// 7.1 Status Registers, 9.6 AC Electrical Characteristics).
//
// Example usage:
//
//	bus, err := spi.NewGenericBus("/dev/spidev0.0")
//	if err != nil { log.Fatal(err) }
//	f, err := w25q128.New(bus)
//	if err != nil { log.Fatal(err) }
//	if err := f.Init(ctx); err != nil { log.Fatal(err) }
//	if err := f.Write(ctx, []byte("hello"), 0x1000); err != nil { log.Fatal(err) }
//	buf := make([]byte, 5)
//	err = f.Read(ctx, buf, 0x1000)
package w25q128

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/flashboard"
)

// DefaultManufacturer is the Winbond JEDEC manufacturer code.
const DefaultManufacturer = 0xEF

type Config struct {
	Geometry     Geometry
	Manufacturer byte
	// PollInterval is the pause between status reads while busy. Zero polls
	// back to back.
	PollInterval time.Duration
	// BusyTimeout overrides the per-operation datasheet bound when positive.
	BusyTimeout time.Duration
	// UnboundedBusyWait polls until the chip reports ready, however long.
	UnboundedBusyWait bool
	Logger            *slog.Logger
}

type Option func(*Config)

func WithGeometry(g Geometry) Option {
	return func(c *Config) {
		c.Geometry = g
	}
}

func WithManufacturer(id byte) Option {
	return func(c *Config) {
		c.Manufacturer = id
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithBusyTimeout bounds every busy-poll by d. A zero d removes the bound.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.BusyTimeout = d
		c.UnboundedBusyWait = d == 0
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// Flash is a handle to one chip. All methods serialize on the handle, so it
// may be shared between goroutines, but the chip must not be reached through
// any other path while the handle is in use.
type Flash struct {
	mx      sync.Mutex
	bus     flashboard.SPIBus
	config  Config
	log     *slog.Logger
	chip    *Chip
	scratch []byte // one sector, only touched under mx
}

func New(bus flashboard.SPIBus, opts ...Option) (*Flash, error) {
	config := Config{
		Geometry:     W25Q128,
		Manufacturer: DefaultManufacturer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("w25q128: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flash{
		bus:     bus,
		config:  config,
		log:     logger.With("device", "w25q128"),
		scratch: make([]byte, config.Geometry.SectorSize),
	}, nil
}

func (f *Flash) Geometry() Geometry {
	return f.config.Geometry
}

// Chip returns the parameters selected by Init, if the chip was recognized.
func (f *Flash) Chip() (Chip, bool) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.chip == nil {
		return Chip{}, false
	}
	return *f.chip, true
}

// exec sends one framed command and reads len(r) reply bytes.
func (f *Flash) exec(ctx context.Context, op Opcode, addr uint32, payload, r []byte) error {
	w, err := op.frame(addr, payload)
	if err != nil {
		return err
	}
	if err := f.bus.Tx(ctx, w, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
