package w25q128

import (
	"context"
	"fmt"
)

// Write stores buf at addr. Every sector the range touches is read first;
// when the destination bytes are already erased they are programmed in
// place, otherwise the sector is erased and rewritten with the new bytes
// merged into its previous contents. Sectors are handled in ascending order.
func (f *Flash) Write(ctx context.Context, buf []byte, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.config.Geometry.checkRange(addr, len(buf)); err != nil {
		return fmt.Errorf("w25q128: write: %w", err)
	}
	return f.write(ctx, buf, addr)
}

// WriteNoCheck programs buf at addr, splitting at page boundaries. The
// destination must already be erased: programming only clears bits.
func (f *Flash) WriteNoCheck(ctx context.Context, buf []byte, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.config.Geometry.checkRange(addr, len(buf)); err != nil {
		return fmt.Errorf("w25q128: write: %w", err)
	}
	return f.writeNoCheck(ctx, buf, addr)
}

// WritePage programs up to one page. The range must not cross a page boundary.
func (f *Flash) WritePage(ctx context.Context, buf []byte, addr uint32) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	g := f.config.Geometry
	if err := g.checkRange(addr, len(buf)); err != nil {
		return fmt.Errorf("w25q128: page program: %w", err)
	}
	if addr%g.PageSize+uint32(len(buf)) > g.PageSize {
		return fmt.Errorf("w25q128: %w: %d bytes at %#06x", ErrPageOverflow, len(buf), addr)
	}
	return f.pageProgram(ctx, buf, addr)
}

func (f *Flash) write(ctx context.Context, buf []byte, addr uint32) error {
	g := f.config.Geometry
	for len(buf) > 0 {
		base := alignDown(addr, g.SectorSize)
		off := addr - base
		chunk := min(uint32(len(buf)), g.SectorSize-off)

		if err := f.read(ctx, OpReadData, f.scratch, base); err != nil {
			return err
		}
		if erased(f.scratch[off : off+chunk]) {
			f.log.Debug("programming erased range", "addr", fmt.Sprintf("%#06x", addr), "len", chunk)
			if err := f.writeNoCheck(ctx, buf[:chunk], addr); err != nil {
				return err
			}
		} else {
			f.log.Debug("merging sector", "sector", base/g.SectorSize, "offset", off, "len", chunk)
			if err := f.erase(ctx, OpSectorErase, base); err != nil {
				return err
			}
			copy(f.scratch[off:], buf[:chunk])
			if err := f.writeNoCheck(ctx, f.scratch, base); err != nil {
				return err
			}
		}
		addr += chunk
		buf = buf[chunk:]
	}
	return nil
}

func (f *Flash) writeNoCheck(ctx context.Context, buf []byte, addr uint32) error {
	pageSize := f.config.Geometry.PageSize
	for len(buf) > 0 {
		n := min(uint32(len(buf)), pageSize-addr%pageSize)
		if err := f.pageProgram(ctx, buf[:n], addr); err != nil {
			return err
		}
		addr += n
		buf = buf[n:]
	}
	return nil
}

func (f *Flash) pageProgram(ctx context.Context, data []byte, addr uint32) error {
	if len(data) == 0 {
		return nil
	}
	if err := f.writeEnable(ctx); err != nil {
		return err
	}
	if err := f.exec(ctx, OpPageProgram, addr, data, nil); err != nil {
		return fmt.Errorf("w25q128: could not program %d bytes at %#06x: %w", len(data), addr, err)
	}
	return f.waitReady(ctx, OpPageProgram)
}

func erased(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}
