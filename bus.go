package flashboard

import (
	"context"
	"errors"
)

var ErrBusBusy = errors.New("SPI bus is busy (transaction not completed)")

// SPIBus carries one logical command per call. Chip select is asserted for the
// whole call: w is clocked out first, then len(r) bytes are clocked in while
// 0xFF is transmitted. Calls must never overlap.
type SPIBus interface {
	Tx(ctx context.Context, w, r []byte) error
}

// SPIBusCloser is an SPIBus owning an underlying port that must be released.
type SPIBusCloser interface {
	SPIBus
	Close() error
}
