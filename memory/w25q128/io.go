package w25q128

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	_ io.ReaderAt = &IO{}
	_ io.WriterAt = &IO{}
)

var errNegativeOffset = errors.New("negative offset")

// IO exposes the chip as an io.ReaderAt and io.WriterAt bound to ctx.
// Writes go through Write, so they never clobber neighbouring bytes.
type IO struct {
	ctx context.Context
	f   *Flash
}

func NewIO(ctx context.Context, f *Flash) *IO {
	return &IO{ctx: ctx, f: f}
}

func (d *IO) Size() int64 {
	return int64(d.f.config.Geometry.Capacity)
}

func (d *IO) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("w25q128: read at %d: %w", off, errNegativeOffset)
	}
	if off >= d.Size() {
		return 0, io.EOF
	}
	n := int(min(int64(len(p)), d.Size()-off))
	if err := d.f.Read(d.ctx, p[:n], uint32(off)); err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *IO) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("w25q128: write at %d: %w", off, errNegativeOffset)
	}
	if off+int64(len(p)) > d.Size() {
		return 0, fmt.Errorf("w25q128: write %d bytes at %d: %w", len(p), off, ErrOutOfRange)
	}
	if err := d.f.Write(d.ctx, p, uint32(off)); err != nil {
		return 0, err
	}
	return len(p), nil
}
