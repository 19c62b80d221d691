package w25q128

import "fmt"

// Opcode is a W25Q instruction [W25Q128JV|8.1.2 Instruction Set Table 1].
type Opcode byte

const (
	OpWriteEnable          Opcode = 0x06
	OpWriteDisable         Opcode = 0x04
	OpReadStatus1          Opcode = 0x05
	OpReadStatus2          Opcode = 0x35
	OpWriteStatus          Opcode = 0x01
	OpReadData             Opcode = 0x03
	OpFastRead             Opcode = 0x0B
	OpPageProgram          Opcode = 0x02
	OpSectorErase          Opcode = 0x20
	OpBlockErase32K        Opcode = 0x52
	OpBlockErase64K        Opcode = 0xD8
	OpChipErase            Opcode = 0xC7
	OpPowerDown            Opcode = 0xB9
	OpReleasePowerDown     Opcode = 0xAB
	OpManufacturerDeviceID Opcode = 0x90
	OpJEDECID              Opcode = 0x9F
	OpEnableReset          Opcode = 0x66
	OpReset                Opcode = 0x99
)

// instruction is the wire shape of an opcode: whether a 24-bit address
// follows and how many dummy bytes precede the data phase.
type instruction struct {
	name      string
	addressed bool
	dummy     int
}

var instructions = map[Opcode]instruction{
	OpWriteEnable:          {name: "WriteEnable"},
	OpWriteDisable:         {name: "WriteDisable"},
	OpReadStatus1:          {name: "ReadStatus1"},
	OpReadStatus2:          {name: "ReadStatus2"},
	OpWriteStatus:          {name: "WriteStatus"},
	OpReadData:             {name: "ReadData", addressed: true},
	OpFastRead:             {name: "FastRead", addressed: true, dummy: 1},
	OpPageProgram:          {name: "PageProgram", addressed: true},
	OpSectorErase:          {name: "SectorErase", addressed: true},
	OpBlockErase32K:        {name: "BlockErase32K", addressed: true},
	OpBlockErase64K:        {name: "BlockErase64K", addressed: true},
	OpChipErase:            {name: "ChipErase"},
	OpPowerDown:            {name: "PowerDown"},
	OpReleasePowerDown:     {name: "ReleasePowerDown"},
	OpManufacturerDeviceID: {name: "ManufacturerDeviceID", addressed: true},
	OpJEDECID:              {name: "JEDECID"},
	OpEnableReset:          {name: "EnableReset"},
	OpReset:                {name: "Reset"},
}

func (op Opcode) Valid() bool {
	_, ok := instructions[op]
	return ok
}

func (op Opcode) String() string {
	if in, ok := instructions[op]; ok {
		return in.name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

// frame builds opcode, optional big-endian address and dummy bytes, then payload.
func (op Opcode) frame(addr uint32, payload []byte) ([]byte, error) {
	in, ok := instructions[op]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(op))
	}
	n := 1 + in.dummy + len(payload)
	if in.addressed {
		n += 3
	}
	w := make([]byte, 0, n)
	w = append(w, byte(op))
	if in.addressed {
		w = append(w, byte(addr>>16), byte(addr>>8), byte(addr))
	}
	for i := 0; i < in.dummy; i++ {
		w = append(w, 0x00)
	}
	return append(w, payload...), nil
}
