package spi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

const (
	ftdiVendorID = 0x0403
	// FT232H and FT2232H both expose the MPSSE engine through periph's FT232H type.
	ft232hProductID  = 0x6014
	ft2232hProductID = 0x6010
)

// ftdiMaxTx is the MPSSE command processor limit [FTDI-AN_108].
const ftdiMaxTx = 65536

var ErrBridgeNotFound = errors.New("no FTDI MPSSE bridge found")

// NewFT232HBus opens the first FT232H/FT2232H bridge. The port toggles ADBUS3
// on every transfer, so the flash chip select is wired to ADBUS4 and held low
// by the bus for the whole command.
func NewFT232HBus(opts ...BusOption) (*GenericBus, error) {
	config := &BusConfig{
		Speed: DefaultSpeed,
		MaxTx: ftdiMaxTx,
	}
	for _, opt := range opts {
		opt(config)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	ft, err := findFT232H()
	if err != nil {
		return nil, err
	}
	port, err := ft.SPI()
	if err != nil {
		return nil, fmt.Errorf("could not get SPI port: %w", err)
	}
	// MPSSE only supports modes 0 and 2; W25Q parts accept 0 and 3.
	conn, err := port.Connect(config.Speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not connect to SPI port: %w", err)
	}
	bus, err := NewBusFromConn(conn, ft.D4, config.MaxTx)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	bus.port = port
	return bus, nil
}

func findFT232H() (*ftdi.FT232H, error) {
	info := ftdi.Info{}
	for _, dev := range ftdi.All() {
		dev.Info(&info)
		if info.VenID != ftdiVendorID {
			continue
		}
		if info.DevID != ft232hProductID && info.DevID != ft2232hProductID {
			continue
		}
		if ft, ok := dev.(*ftdi.FT232H); ok {
			return ft, nil
		}
	}
	return nil, ErrBridgeNotFound
}
