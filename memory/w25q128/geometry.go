package w25q128

import "fmt"

// Datasheet geometry of the W25Q128JV (8.1 Instruction Set, 6.2 Architecture).
const (
	PageSize    = 256
	SectorSize  = 4096
	Block32Size = 32 * 1024
	BlockSize   = 64 * 1024
	Capacity    = 16 * 1024 * 1024

	// 24-bit addressing tops out at 16 MiB.
	maxCapacity = 1 << 24
)

// Geometry describes the program and erase granularity of a chip. Each size
// divides the next one.
type Geometry struct {
	PageSize   uint32 `yaml:"page_size"`
	SectorSize uint32 `yaml:"sector_size"`
	BlockSize  uint32 `yaml:"block_size"`
	Capacity   uint32 `yaml:"capacity"`
}

var W25Q128 = Geometry{
	PageSize:   PageSize,
	SectorSize: SectorSize,
	BlockSize:  BlockSize,
	Capacity:   Capacity,
}

func (g Geometry) SectorCount() uint32 {
	return g.Capacity / g.SectorSize
}

func (g Geometry) BlockCount() uint32 {
	return g.Capacity / g.BlockSize
}

func (g Geometry) Validate() error {
	if g.PageSize == 0 || g.SectorSize == 0 || g.BlockSize == 0 || g.Capacity == 0 {
		return fmt.Errorf("%w: zero size in %+v", ErrInvalidGeometry, g)
	}
	if g.SectorSize%g.PageSize != 0 {
		return fmt.Errorf("%w: sector size %d is not a multiple of page size %d", ErrInvalidGeometry, g.SectorSize, g.PageSize)
	}
	if g.BlockSize%g.SectorSize != 0 {
		return fmt.Errorf("%w: block size %d is not a multiple of sector size %d", ErrInvalidGeometry, g.BlockSize, g.SectorSize)
	}
	if g.Capacity%g.BlockSize != 0 {
		return fmt.Errorf("%w: capacity %d is not a multiple of block size %d", ErrInvalidGeometry, g.Capacity, g.BlockSize)
	}
	if g.Capacity > maxCapacity {
		return fmt.Errorf("%w: capacity %d exceeds 24-bit address space", ErrInvalidGeometry, g.Capacity)
	}
	return nil
}

// checkRange reports whether [addr, addr+n) lies inside the chip.
func (g Geometry) checkRange(addr uint32, n int) error {
	if uint64(addr)+uint64(n) > uint64(g.Capacity) {
		return fmt.Errorf("%w: [%#06x, %#06x) exceeds capacity %#x", ErrOutOfRange, addr, uint64(addr)+uint64(n), g.Capacity)
	}
	return nil
}

func alignDown(addr, unit uint32) uint32 {
	return addr / unit * unit
}
