package w25q128

import (
	"context"
	"sync"

	"github.com/mklimuk/flashboard"
)

var _ flashboard.SPIBus = &MockChip{}

// MockChip is an in-memory W25Q flash behind an SPIBus. It keeps the rules
// that make NOR flash awkward: programming only clears bits and wraps inside
// a page, erasing sets whole units to 0xFF, program/erase need the write
// enable latch and consume it. While powered down only status reads and
// release are served; while busy only status reads and reset.
//
// Example usage:
//
//	chip := NewMockChip(JEDECWinbondW25Q128JV, 256*1024)
//	f, _ := New(chip, WithGeometry(Geometry{PageSize: 256, SectorSize: 4096, BlockSize: 65536, Capacity: 256 * 1024}))
type MockChip struct {
	mu sync.Mutex

	// BusyPolls is how many status reads report BUSY after a program or erase.
	BusyPolls int
	// StuckBusy keeps BUSY set forever once a program or erase starts.
	StuckBusy bool
	// WriteProtect makes the chip ignore WriteEnable.
	WriteProtect bool
	// ProgramFault, when set, alters each byte as it is programmed.
	ProgramFault func(addr uint32, b byte) byte
	// TxErr fails every transaction.
	TxErr error

	mem         []byte
	jedec       JEDECID
	deviceID    byte
	sr1         StatusRegister
	sr2         StatusRegister2
	busy        bool
	busyLeft    int
	poweredDown bool
	resetArmed  bool

	erases   map[Opcode]int
	programs int
	commands []Opcode
}

// NewMockChip returns a blank (all 0xFF) chip of size bytes. Addresses wrap
// modulo size, so a small simulated array can stand in for a larger part.
func NewMockChip(id JEDECID, size int) *MockChip {
	mem := make([]byte, size)
	for i := range mem {
		mem[i] = 0xFF
	}
	return &MockChip{
		mem:      mem,
		jedec:    id,
		deviceID: id.CapacityCode() - 1,
		erases:   make(map[Opcode]int),
	}
}

func (m *MockChip) Tx(ctx context.Context, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TxErr != nil {
		return m.TxErr
	}
	for i := range r {
		r[i] = 0xFF
	}
	if len(w) == 0 {
		return nil
	}
	op := Opcode(w[0])
	m.commands = append(m.commands, op)

	if op != OpReset && op != OpEnableReset {
		m.resetArmed = false
	}

	switch {
	case op == OpReadStatus1:
		m.readStatus(r)
		return nil
	case op == OpReadStatus2:
		for i := range r {
			r[i] = byte(m.sr2)
		}
		return nil
	case m.poweredDown && op != OpReleasePowerDown:
		return nil
	case m.busy && op != OpEnableReset && op != OpReset:
		return nil
	}

	switch op {
	case OpWriteEnable:
		if !m.WriteProtect {
			m.sr1 |= statusWEL
		}
	case OpWriteDisable:
		m.sr1 &^= statusWEL
	case OpWriteStatus:
		if !m.consumeWEL() || len(w) < 2 {
			return nil
		}
		m.sr1 = StatusRegister(w[1]) &^ (statusBusy | statusWEL)
		if len(w) > 2 {
			m.sr2 = StatusRegister2(w[2])
		}
		m.startBusy()
	case OpReadData:
		if addr, ok := address(w); ok {
			m.readMem(addr, r)
		}
	case OpFastRead:
		if addr, ok := address(w); ok && len(w) >= 5 {
			m.readMem(addr, r)
		}
	case OpPageProgram:
		addr, ok := address(w)
		if !ok || !m.consumeWEL() {
			return nil
		}
		m.program(addr, w[4:])
		m.programs++
		m.startBusy()
	case OpSectorErase, OpBlockErase32K, OpBlockErase64K:
		addr, ok := address(w)
		if !ok || !m.consumeWEL() {
			return nil
		}
		unit := map[Opcode]uint32{
			OpSectorErase:   SectorSize,
			OpBlockErase32K: Block32Size,
			OpBlockErase64K: BlockSize,
		}[op]
		m.eraseRange(alignDown(addr, unit), unit)
		m.erases[op]++
		m.startBusy()
	case OpChipErase:
		if !m.consumeWEL() {
			return nil
		}
		m.eraseRange(0, uint32(len(m.mem)))
		m.erases[op]++
		m.startBusy()
	case OpPowerDown:
		m.poweredDown = true
	case OpReleasePowerDown:
		m.poweredDown = false
		for i := range r {
			r[i] = m.deviceID
		}
	case OpManufacturerDeviceID:
		if len(r) > 0 {
			r[0] = m.jedec.Manufacturer()
		}
		if len(r) > 1 {
			r[1] = m.deviceID
		}
	case OpJEDECID:
		id := []byte{m.jedec.Manufacturer(), m.jedec.MemoryType(), m.jedec.CapacityCode()}
		copy(r, id)
	case OpEnableReset:
		m.resetArmed = true
	case OpReset:
		if m.resetArmed {
			m.resetArmed = false
			m.sr1 &^= statusWEL
			m.busy = false
			m.poweredDown = false
		}
	}
	return nil
}

func address(w []byte) (uint32, bool) {
	if len(w) < 4 {
		return 0, false
	}
	return uint32(w[1])<<16 | uint32(w[2])<<8 | uint32(w[3]), true
}

func (m *MockChip) readStatus(r []byte) {
	if m.busy && !m.StuckBusy {
		if m.busyLeft > 0 {
			m.busyLeft--
		} else {
			m.busy = false
		}
	}
	sr := m.sr1
	if m.busy {
		sr |= statusBusy
	}
	for i := range r {
		r[i] = byte(sr)
	}
}

func (m *MockChip) consumeWEL() bool {
	if !m.sr1.WriteEnabled() {
		return false
	}
	m.sr1 &^= statusWEL
	return true
}

func (m *MockChip) startBusy() {
	m.busy = true
	m.busyLeft = m.BusyPolls
}

func (m *MockChip) readMem(addr uint32, r []byte) {
	size := uint32(len(m.mem))
	for i := range r {
		r[i] = m.mem[(addr+uint32(i))%size]
	}
}

// program clears bits within the addressed page, wrapping at its end.
func (m *MockChip) program(addr uint32, data []byte) {
	size := uint32(len(m.mem))
	page := alignDown(addr, PageSize)
	off := addr % PageSize
	for i, b := range data {
		a := page + (off+uint32(i))%PageSize
		if m.ProgramFault != nil {
			b = m.ProgramFault(a, b)
		}
		m.mem[a%size] &= b
	}
}

func (m *MockChip) eraseRange(start, n uint32) {
	size := uint32(len(m.mem))
	n = min(n, size)
	for i := uint32(0); i < n; i++ {
		m.mem[(start+i)%size] = 0xFF
	}
}

// Load writes raw bytes into the array, bypassing program semantics.
func (m *MockChip) Load(addr uint32, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uint32(len(m.mem))
	for i, b := range data {
		m.mem[(addr+uint32(i))%size] = b
	}
}

// Memory returns a copy of the array.
func (m *MockChip) Memory() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.mem))
	copy(out, m.mem)
	return out
}

func (m *MockChip) EraseCount(op Opcode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.erases[op]
}

func (m *MockChip) ProgramCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.programs
}

// Commands returns every opcode received so far, in order.
func (m *MockChip) Commands() []Opcode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Opcode, len(m.commands))
	copy(out, m.commands)
	return out
}

func (m *MockChip) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.erases = make(map[Opcode]int)
	m.programs = 0
	m.commands = nil
}

func (m *MockChip) PoweredDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poweredDown
}

func (m *MockChip) Status() StatusRegister {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return m.sr1 | statusBusy
	}
	return m.sr1
}
