package w25q128

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTest(t *testing.T) {
	tests := []struct {
		name     string
		id       JEDECID
		fault    func(addr uint32, b byte) byte
		wantErr  error
		touched  bool
		capacity uint64
	}{
		{
			name:     "winbond 16MB passes",
			id:       JEDECWinbondW25Q128JV,
			touched:  true,
			capacity: 16 << 20,
		},
		{
			name:    "wrong manufacturer",
			id:      JEDECID(0x004018),
			wantErr: ErrIDMismatch,
		},
		{
			name:    "capacity code too small",
			id:      JEDECID(0xEF4010),
			wantErr: ErrSizeOutOfRange,
		},
		{
			name:    "capacity code too large",
			id:      JEDECID(0xEF4022),
			wantErr: ErrSizeOutOfRange,
		},
		{
			name: "readback mismatch",
			id:   JEDECWinbondW25Q128JV,
			fault: func(addr uint32, b byte) byte {
				if addr == 7 {
					return b ^ 0x01
				}
				return b
			},
			wantErr:  ErrDataMismatch,
			touched:  true,
			capacity: 16 << 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := NewMockChip(tt.id, 64*1024)
			chip.ProgramFault = tt.fault
			chip.Load(0, []byte{0x00, 0x11, 0x22})
			before := chip.Memory()

			f, err := New(chip)
			require.NoError(t, err)

			report, err := f.SelfTest(context.Background())
			assert.Equal(t, tt.id, report.JEDECID)
			assert.Equal(t, tt.capacity, report.Capacity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			if tt.touched {
				assert.Equal(t, 1, chip.EraseCount(OpSectorErase))
				assert.NotZero(t, chip.ProgramCount())
			} else {
				assert.Zero(t, chip.EraseCount(OpSectorErase))
				assert.Zero(t, chip.ProgramCount())
				assert.Equal(t, before, chip.Memory())
			}
		})
	}
}

func TestSelfTest_Report(t *testing.T) {
	chip := NewMockChip(JEDECWinbondW25Q128JV, 64*1024)
	f, err := New(chip)
	require.NoError(t, err)

	report, err := f.SelfTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "16MB", report.String())
	assert.Equal(t, "Winbond W25Q128JV-IQ", report.Name)

	mem := chip.Memory()
	for i := 0; i < selfTestSize; i++ {
		require.Equal(t, byte(i), mem[i])
	}

	assert.Equal(t, "128KB", TestReport{Capacity: 128 << 10}.String())
}

func TestSelfTest_ErrorDetails(t *testing.T) {
	f, err := New(NewMockChip(JEDECID(0xC22018), 64*1024))
	require.NoError(t, err)
	_, err = f.SelfTest(context.Background())

	var mismatch *IDMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, byte(0xEF), mismatch.Expected)
	assert.Equal(t, JEDECID(0xC22018), mismatch.Actual)
	assert.NotErrorIs(t, err, ErrSizeOutOfRange)

	// A different expected vendor accepts the same chip.
	g, err := New(NewMockChip(JEDECID(0xC22018), 64*1024), WithManufacturer(0xC2))
	require.NoError(t, err)
	report, err := g.SelfTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16<<20), report.Capacity)

	h, err := New(NewMockChip(JEDECWinbondW25Q128JV, 64*1024))
	require.NoError(t, err)
	h.bus.(*MockChip).ProgramFault = func(addr uint32, b byte) byte {
		if addr == 3 {
			return 0x00
		}
		return b
	}
	_, err = h.SelfTest(context.Background())
	var data *DataMismatchError
	require.True(t, errors.As(err, &data))
	assert.Equal(t, uint32(3), data.Offset)
	assert.Equal(t, byte(3), data.Expected)
	assert.Equal(t, byte(0), data.Actual)
}
