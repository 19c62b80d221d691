package w25q128

import (
	"context"
	"fmt"
)

// Read fills buf with the bytes starting at addr using the 0x03 instruction.
func (f *Flash) Read(ctx context.Context, buf []byte, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.config.Geometry.checkRange(addr, len(buf)); err != nil {
		return fmt.Errorf("w25q128: read: %w", err)
	}
	return f.read(ctx, OpReadData, buf, addr)
}

// FastRead is Read over the 0x0B instruction, which allows the full SPI clock
// at the cost of one dummy byte.
func (f *Flash) FastRead(ctx context.Context, buf []byte, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.config.Geometry.checkRange(addr, len(buf)); err != nil {
		return fmt.Errorf("w25q128: fast read: %w", err)
	}
	return f.read(ctx, OpFastRead, buf, addr)
}

func (f *Flash) read(ctx context.Context, op Opcode, buf []byte, addr uint32) error {
	if len(buf) == 0 {
		return nil
	}
	if err := f.exec(ctx, op, addr, nil, buf); err != nil {
		return fmt.Errorf("w25q128: could not read %d bytes at %#06x: %w", len(buf), addr, err)
	}
	return nil
}
