package w25q128

import (
	"context"
	"fmt"
)

// JEDECID is the 24-bit reply to 0x9F: manufacturer, memory type and a
// capacity byte holding log2 of the size in bytes.
type JEDECID uint32

func (id JEDECID) Manufacturer() byte { return byte(id >> 16) }
func (id JEDECID) MemoryType() byte   { return byte(id >> 8) }
func (id JEDECID) CapacityCode() byte { return byte(id) }

// Capacity is 2^CapacityCode bytes.
func (id JEDECID) Capacity() uint64 {
	code := id.CapacityCode()
	if code >= 64 {
		return 0
	}
	return 1 << code
}

func (id JEDECID) String() string {
	return fmt.Sprintf("%06X", uint32(id))
}

func (id JEDECID) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("0x%06X", uint32(id)), nil
}

// ReadID returns manufacturer (high byte) and device ID (low byte) via 0x90.
func (f *Flash) ReadID(ctx context.Context) (uint16, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	resp := make([]byte, 2)
	if err := f.exec(ctx, OpManufacturerDeviceID, 0, nil, resp); err != nil {
		return 0, fmt.Errorf("w25q128: could not read manufacturer/device ID: %w", err)
	}
	return uint16(resp[0])<<8 | uint16(resp[1]), nil
}

func (f *Flash) ReadJEDECID(ctx context.Context) (JEDECID, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.readJEDECID(ctx)
}

func (f *Flash) readJEDECID(ctx context.Context) (JEDECID, error) {
	resp := make([]byte, 3)
	if err := f.exec(ctx, OpJEDECID, 0, nil, resp); err != nil {
		return 0, fmt.Errorf("w25q128: could not read JEDEC ID: %w", err)
	}
	return JEDECID(uint32(resp[0])<<16 | uint32(resp[1])<<8 | uint32(resp[2])), nil
}
