package w25q128

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcode_Frame(t *testing.T) {
	tests := []struct {
		op      Opcode
		addr    uint32
		payload []byte
		want    []byte
	}{
		{op: OpWriteEnable, want: []byte{0x06}},
		{op: OpJEDECID, addr: 0xABCDEF, want: []byte{0x9F}},
		{op: OpReadData, addr: 0xABCDEF, want: []byte{0x03, 0xAB, 0xCD, 0xEF}},
		{op: OpFastRead, addr: 0x000102, want: []byte{0x0B, 0x00, 0x01, 0x02, 0x00}},
		{op: OpPageProgram, addr: 0x010000, payload: []byte{1, 2}, want: []byte{0x02, 0x01, 0x00, 0x00, 1, 2}},
		{op: OpWriteStatus, payload: []byte{0x1C}, want: []byte{0x01, 0x1C}},
		{op: OpBlockErase64K, addr: 0xFF0000, want: []byte{0xD8, 0xFF, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, err := tt.op.frame(tt.addr, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpcode_Unknown(t *testing.T) {
	op := Opcode(0xEB)
	assert.False(t, op.Valid())
	assert.Equal(t, "Opcode(0xEB)", op.String())
	_, err := op.frame(0, nil)
	assert.ErrorIs(t, err, ErrUnknownOpcode)

	assert.True(t, OpChipErase.Valid())
	assert.Equal(t, "ChipErase", OpChipErase.String())
}

func TestGeometry(t *testing.T) {
	assert.NoError(t, W25Q128.Validate())
	assert.Equal(t, uint32(4096), W25Q128.SectorCount())
	assert.Equal(t, uint32(256), W25Q128.BlockCount())

	invalid := []Geometry{
		{},
		{PageSize: 256, SectorSize: 4000, BlockSize: 64000, Capacity: 1 << 20},
		{PageSize: 256, SectorSize: 4096, BlockSize: 10000, Capacity: 1 << 20},
		{PageSize: 256, SectorSize: 4096, BlockSize: 65536, Capacity: 100000},
		{PageSize: 256, SectorSize: 4096, BlockSize: 65536, Capacity: 1 << 25},
	}
	for _, g := range invalid {
		assert.ErrorIs(t, g.Validate(), ErrInvalidGeometry, "%+v", g)
	}

	assert.NoError(t, W25Q128.checkRange(Capacity-1, 1))
	assert.NoError(t, W25Q128.checkRange(0, Capacity))
	assert.ErrorIs(t, W25Q128.checkRange(Capacity-1, 2), ErrOutOfRange)
	assert.ErrorIs(t, W25Q128.checkRange(0xFFFFFFFF, 1), ErrOutOfRange)
}

func TestStatusRegister_String(t *testing.T) {
	assert.Equal(t, "00000000", StatusRegister(0).String())
	assert.Equal(t, "00000011 WEL,BUSY", StatusRegister(0x03).String())
	assert.Equal(t, "10011100 SRP,BP=7", StatusRegister(0x9C).String())
	assert.Equal(t, "00000010 QE", StatusRegister2(0x02).String())

	assert.Equal(t, StateBusy, StatusRegister(0x03).State())
	assert.Equal(t, StateWriteEnabled, StatusRegister(0x02).State())
	assert.Equal(t, StateReady, StatusRegister(0x1C).State())
	assert.Equal(t, "WRITE-ENABLED", StateWriteEnabled.String())
	assert.Equal(t, "BUSY", StateBusy.String())
	assert.Equal(t, "READY", StateReady.String())
}

func TestJEDECID_MarshalYAML(t *testing.T) {
	v, err := JEDECWinbondW25Q128JV.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "0xEF4018", v)
	assert.Equal(t, uint64(0), JEDECID(0xEF4040).Capacity())
}
