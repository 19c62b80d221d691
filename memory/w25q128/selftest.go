package w25q128

import (
	"context"
	"fmt"
)

// Plausible capacity exponents: 128KB (0x11) to 8GB (0x21).
const (
	minCapacityCode = 0x11
	maxCapacityCode = 0x21

	selfTestSize = 256
)

type TestReport struct {
	JEDECID  JEDECID `yaml:"jedec_id"`
	Name     string  `yaml:"name,omitempty"`
	Capacity uint64  `yaml:"capacity"`
}

// SelfTest checks the JEDEC ID against the expected manufacturer, derives the
// capacity from it and round-trips a 256 byte pattern through sector 0.
// Sector 0 is erased in the process. The returned error matches
// ErrIDMismatch, ErrSizeOutOfRange or ErrDataMismatch for the three failure
// outcomes; the chip is not touched when identification fails.
func (f *Flash) SelfTest(ctx context.Context) (TestReport, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	id, err := f.readJEDECID(ctx)
	if err != nil {
		return TestReport{}, err
	}
	report := TestReport{JEDECID: id}
	if chip, ok := LookupChip(id); ok {
		report.Name = chip.Name
	}
	if id.Manufacturer() != f.config.Manufacturer {
		return report, &IDMismatchError{Expected: f.config.Manufacturer, Actual: id}
	}
	if code := id.CapacityCode(); code < minCapacityCode || code > maxCapacityCode {
		return report, &SizeOutOfRangeError{Code: code, Min: minCapacityCode, Max: maxCapacityCode}
	}
	report.Capacity = id.Capacity()

	tx := make([]byte, selfTestSize)
	for i := range tx {
		tx[i] = byte(i)
	}
	if err := f.erase(ctx, OpSectorErase, 0); err != nil {
		return report, err
	}
	if err := f.write(ctx, tx, 0); err != nil {
		return report, err
	}
	rx := make([]byte, selfTestSize)
	if err := f.read(ctx, OpReadData, rx, 0); err != nil {
		return report, err
	}
	for i := range tx {
		if tx[i] != rx[i] {
			return report, &DataMismatchError{Offset: uint32(i), Expected: tx[i], Actual: rx[i]}
		}
	}
	f.log.Debug("self test passed", "jedec", id.String(), "capacity", report.Capacity)
	return report, nil
}

// String renders the capacity the way the board display does, e.g. "16MB".
func (r TestReport) String() string {
	switch {
	case r.Capacity >= 1<<20:
		return fmt.Sprintf("%dMB", r.Capacity>>20)
	default:
		return fmt.Sprintf("%dKB", r.Capacity>>10)
	}
}
