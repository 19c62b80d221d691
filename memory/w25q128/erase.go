package w25q128

import (
	"context"
	"fmt"
)

// EraseSector sets the 4KB sector containing addr to 0xFF.
func (f *Flash) EraseSector(ctx context.Context, addr uint32) error {
	return f.eraseLocked(ctx, OpSectorErase, addr)
}

// EraseBlock32K sets the 32KB block containing addr to 0xFF.
func (f *Flash) EraseBlock32K(ctx context.Context, addr uint32) error {
	return f.eraseLocked(ctx, OpBlockErase32K, addr)
}

// EraseBlock sets the 64KB block containing addr to 0xFF.
func (f *Flash) EraseBlock(ctx context.Context, addr uint32) error {
	return f.eraseLocked(ctx, OpBlockErase64K, addr)
}

// EraseChip sets the whole array to 0xFF. It takes tens of seconds on a
// 16MB part and blocks the caller for that long.
func (f *Flash) EraseChip(ctx context.Context) error {
	return f.eraseLocked(ctx, OpChipErase, 0)
}

// Erase clears size bytes from addr, using 64KB block erases where the range
// allows and sector erases elsewhere. addr and size must be sector aligned.
func (f *Flash) Erase(ctx context.Context, addr, size uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	g := f.config.Geometry
	if addr%g.SectorSize != 0 || size%g.SectorSize != 0 {
		return fmt.Errorf("w25q128: %w: %d bytes at %#06x", ErrUnaligned, size, addr)
	}
	if err := g.checkRange(addr, int(size)); err != nil {
		return fmt.Errorf("w25q128: erase: %w", err)
	}
	for size > 0 {
		op, unit := OpSectorErase, g.SectorSize
		if addr%g.BlockSize == 0 && size >= g.BlockSize {
			op, unit = OpBlockErase64K, g.BlockSize
		}
		if err := f.erase(ctx, op, addr); err != nil {
			return err
		}
		addr += unit
		size -= unit
	}
	return nil
}

func (f *Flash) eraseLocked(ctx context.Context, op Opcode, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.config.Geometry.checkRange(addr, 1); err != nil {
		return fmt.Errorf("w25q128: %s: %w", op, err)
	}
	return f.erase(ctx, op, addr)
}

func (f *Flash) erase(ctx context.Context, op Opcode, addr uint32) error {
	switch op {
	case OpSectorErase:
		addr = alignDown(addr, f.config.Geometry.SectorSize)
	case OpBlockErase32K:
		addr = alignDown(addr, Block32Size)
	case OpBlockErase64K:
		addr = alignDown(addr, f.config.Geometry.BlockSize)
	case OpChipErase:
		addr = 0
	default:
		return fmt.Errorf("w25q128: %w: %s is not an erase", ErrUnknownOpcode, op)
	}
	if err := f.waitReady(ctx, op); err != nil {
		return err
	}
	if err := f.writeEnable(ctx); err != nil {
		return err
	}
	f.log.Debug("erasing", "op", op.String(), "addr", fmt.Sprintf("%#06x", addr))
	if err := f.exec(ctx, op, addr, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not erase at %#06x: %w", addr, err)
	}
	return f.waitReady(ctx, op)
}
