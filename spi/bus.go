package spi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/flashboard"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var _ flashboard.SPIBusCloser = &GenericBus{}

// DefaultMaxTx is the largest single transfer handed to the controller.
// It matches the default spidev bufsiz.
const DefaultMaxTx = 4096

const DefaultSpeed = 10 * physic.MegaHertz

type BusConfig struct {
	Speed      physic.Frequency
	ChipSelect string
	MaxTx      int
}

type BusOption func(*BusConfig)

func WithSpeed(f physic.Frequency) BusOption {
	return func(c *BusConfig) {
		c.Speed = f
	}
}

// WithChipSelect drives chip select from a GPIO pin instead of the controller.
func WithChipSelect(pin string) BusOption {
	return func(c *BusConfig) {
		c.ChipSelect = pin
	}
}

func WithMaxTx(n int) BusOption {
	return func(c *BusConfig) {
		c.MaxTx = n
	}
}

// GenericBus is an SPI bus backed by a periph.io connection. Chip select is
// either handled by the controller (packets chained with KeepCS) or by a
// GPIO pin held low for the whole command.
type GenericBus struct {
	mx    sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
	cs    gpio.PinOut
	maxTx int
}

// NewGenericBus opens an SPI port by name (e.g. "/dev/spidev0.0" or "SPI0.0").
func NewGenericBus(dev string, opts ...BusOption) (*GenericBus, error) {
	config := &BusConfig{
		Speed: DefaultSpeed,
		MaxTx: DefaultMaxTx,
	}
	for _, opt := range opts {
		opt(config)
	}
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %s: %w", dev, err)
	}
	conn, err := port.Connect(config.Speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not connect to spi port %s: %w", dev, err)
	}
	var cs gpio.PinOut
	if config.ChipSelect != "" {
		pin := gpioreg.ByName(config.ChipSelect)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("unknown chip select pin %s", config.ChipSelect)
		}
		cs = pin
	}
	bus, err := NewBusFromConn(conn, cs, config.MaxTx)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	bus.port = port
	return bus, nil
}

// NewBusFromConn wraps an already connected periph.io connection. cs may be
// nil when the controller drives chip select.
func NewBusFromConn(conn spi.Conn, cs gpio.PinOut, maxTx int) (*GenericBus, error) {
	if maxTx <= 0 {
		maxTx = DefaultMaxTx
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("could not deassert chip select: %w", err)
		}
	}
	return &GenericBus{conn: conn, cs: cs, maxTx: maxTx}, nil
}

func (b *GenericBus) Tx(ctx context.Context, w, r []byte) error {
	if !b.mx.TryLock() {
		return flashboard.ErrBusBusy
	}
	defer b.mx.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(w)+len(r))
	copy(buf, w)
	for i := len(w); i < len(buf); i++ {
		buf[i] = 0xFF
	}
	var err error
	if b.cs != nil {
		err = b.txManual(buf)
	} else {
		err = b.txPackets(buf)
	}
	if err != nil {
		return fmt.Errorf("spi transfer on %s failed: %w", b.conn, err)
	}
	copy(r, buf[len(w):])
	return nil
}

// txPackets chains transfers with KeepCS so the chip sees one command.
func (b *GenericBus) txPackets(buf []byte) error {
	if len(buf) <= b.maxTx {
		return b.conn.Tx(buf, buf)
	}
	packets := make([]spi.Packet, 0, len(buf)/b.maxTx+1)
	for off := 0; off < len(buf); off += b.maxTx {
		end := min(off+b.maxTx, len(buf))
		packets = append(packets, spi.Packet{
			W:      buf[off:end],
			R:      buf[off:end],
			KeepCS: end < len(buf),
		})
	}
	return b.conn.TxPackets(packets)
}

func (b *GenericBus) txManual(buf []byte) (err error) {
	if err = b.cs.Out(gpio.Low); err != nil {
		return err
	}
	defer func() {
		if csErr := b.cs.Out(gpio.High); csErr != nil && err == nil {
			err = csErr
		}
	}()
	for off := 0; off < len(buf); off += b.maxTx {
		end := min(off+b.maxTx, len(buf))
		if err = b.conn.Tx(buf[off:end], buf[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func (b *GenericBus) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}
