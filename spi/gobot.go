package spi

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/flashboard"
	"gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/physic"
)

var _ flashboard.SPIBusCloser = &GobotBus{}

var ErrNotStarted = errors.New("gobot spi driver not started")

// gobotConnection is the subset of the Gobot SPI connection the bus needs.
// ReadCommandData keeps chip select asserted between command and data.
type gobotConnection interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// GobotBus runs flash commands through a Gobot SPI driver, e.g. on a NanoPi
// NEO with the kernel spidev handling chip select.
//
//	adaptor := nanopi.NewNeoAdaptor()
//	bus := spi.NewGobotBus(adaptor, spi.WithGobotBus(0), spi.WithGobotChip(0))
//	if err := bus.Start(); err != nil { log.Fatal(err) }
type GobotBus struct {
	*spi.Driver
	conn gobotConnection
}

type GobotOption = func(spi.Config)

func WithGobotBus(n int) GobotOption {
	return spi.WithBusNumber(n)
}

func WithGobotChip(n int) GobotOption {
	return spi.WithChipNumber(n)
}

func WithGobotSpeed(hz int64) GobotOption {
	return spi.WithSpeed(hz)
}

func NewGobotBus(adaptor spi.Connector, opts ...GobotOption) *GobotBus {
	d := spi.NewDriver(adaptor, "w25q128", opts...)
	// W25Q parts accept mode 0 and 3; plain 0x03 reads are limited to 50 MHz.
	d.SetMode(0)
	if d.GetSpeedOrDefault(0) == 0 {
		d.SetSpeed(int64(DefaultSpeed / physic.Hertz))
	}
	return &GobotBus{Driver: d}
}

// Start connects the driver and resolves the SPI connection.
func (b *GobotBus) Start() error {
	if err := b.Driver.Start(); err != nil {
		return fmt.Errorf("could not start gobot spi driver: %w", err)
	}
	conn, ok := b.Driver.Connection().(gobotConnection)
	if !ok {
		return fmt.Errorf("spi connection does not support required operations")
	}
	b.conn = conn
	return nil
}

func (b *GobotBus) Tx(ctx context.Context, w, r []byte) error {
	if b.conn == nil {
		return ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r) == 0 {
		if len(w) == 0 {
			return nil
		}
		if err := b.conn.WriteBytes(w); err != nil {
			return fmt.Errorf("spi write failed: %w", err)
		}
		return nil
	}
	if err := b.conn.ReadCommandData(w, r); err != nil {
		return fmt.Errorf("spi read failed: %w", err)
	}
	return nil
}

func (b *GobotBus) Close() error {
	return b.Driver.Halt()
}
