package w25q128

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout         = errors.New("timeout waiting for chip to become ready")
	ErrWriteEnable     = errors.New("write enable latch did not set")
	ErrOutOfRange      = errors.New("address range out of chip capacity")
	ErrUnaligned       = errors.New("address or size not aligned to erase unit")
	ErrPageOverflow    = errors.New("page program must not cross a page boundary")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrInvalidGeometry = errors.New("invalid flash geometry")

	ErrIDMismatch     = errors.New("flash identification mismatch")
	ErrSizeOutOfRange = errors.New("flash capacity code out of range")
	ErrDataMismatch   = errors.New("flash readback mismatch")
)

// IDMismatchError is reported by the self test when the JEDEC manufacturer
// byte differs from the expected vendor.
type IDMismatchError struct {
	Expected byte
	Actual   JEDECID
}

func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("flash identification mismatch: expected manufacturer 0x%02X, chip reports JEDEC ID %s", e.Expected, e.Actual)
}

func (e *IDMismatchError) Is(target error) bool { return target == ErrIDMismatch }

// SizeOutOfRangeError is reported when the capacity exponent is implausible.
type SizeOutOfRangeError struct {
	Code     byte
	Min, Max byte
}

func (e *SizeOutOfRangeError) Error() string {
	return fmt.Sprintf("flash capacity code 0x%02X out of range: valid range is 0x%02X-0x%02X", e.Code, e.Min, e.Max)
}

func (e *SizeOutOfRangeError) Is(target error) bool { return target == ErrSizeOutOfRange }

// DataMismatchError points at the first byte that did not survive the
// erase-write-readback round trip.
type DataMismatchError struct {
	Offset   uint32
	Expected byte
	Actual   byte
}

func (e *DataMismatchError) Error() string {
	return fmt.Sprintf("flash readback mismatch at 0x%06X: expected 0x%02X, got 0x%02X", e.Offset, e.Expected, e.Actual)
}

func (e *DataMismatchError) Is(target error) bool { return target == ErrDataMismatch }
