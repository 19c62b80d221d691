package w25q128

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StatusRegister is status register 1 [W25Q128JV|7.1 Status Registers].
//
//	Bit | Name
//	----+---------------------------------
//	7   | SRP: Status Register Protect
//	6   | SEC: Sector/Block Protect
//	5   | TB: Top/Bottom Protect
//	4:2 | BP2-0: Block Protect bits
//	1   | WEL: Write Enable Latch
//	0   | BUSY: Erase/Write in progress
type StatusRegister byte

const (
	statusBusy StatusRegister = 1 << 0
	statusWEL  StatusRegister = 1 << 1
)

func (sr StatusRegister) StatusRegisterProtect() bool { return sr&(1<<7) != 0 }
func (sr StatusRegister) SectorProtect() bool         { return sr&(1<<6) != 0 }
func (sr StatusRegister) TopBottom() bool             { return sr&(1<<5) != 0 }
func (sr StatusRegister) BlockProtect() byte          { return byte(sr>>2) & 0x07 }
func (sr StatusRegister) WriteEnabled() bool          { return sr&statusWEL != 0 }
func (sr StatusRegister) Busy() bool                  { return sr&statusBusy != 0 }

func (sr StatusRegister) State() State {
	switch {
	case sr.Busy():
		return StateBusy
	case sr.WriteEnabled():
		return StateWriteEnabled
	default:
		return StateReady
	}
}

func (sr StatusRegister) String() string {
	b := fmt.Sprintf("%08b", byte(sr))
	s := []string{}
	if sr.StatusRegisterProtect() {
		s = append(s, "SRP")
	}
	if sr.SectorProtect() {
		s = append(s, "SEC")
	}
	if sr.TopBottom() {
		s = append(s, "TB")
	}
	if bp := sr.BlockProtect(); bp != 0 {
		s = append(s, fmt.Sprintf("BP=%d", bp))
	}
	if sr.WriteEnabled() {
		s = append(s, "WEL")
	}
	if sr.Busy() {
		s = append(s, "BUSY")
	}
	if len(s) == 0 {
		return b
	}
	return b + " " + strings.Join(s, ",")
}

// StatusRegister2 is status register 2.
//
//	Bit | Name
//	----+------------------------------
//	7   | SUS: Erase/Program Suspend
//	6   | CMP: Complement Protect
//	5:3 | LB3-1: Security Register Lock
//	1   | QE: Quad Enable
//	0   | SRL: Status Register Lock
type StatusRegister2 byte

func (sr StatusRegister2) Suspended() bool     { return sr&(1<<7) != 0 }
func (sr StatusRegister2) Complement() bool    { return sr&(1<<6) != 0 }
func (sr StatusRegister2) SecurityLocks() byte { return byte(sr>>3) & 0x07 }
func (sr StatusRegister2) QuadEnabled() bool   { return sr&(1<<1) != 0 }
func (sr StatusRegister2) Locked() bool        { return sr&(1<<0) != 0 }

func (sr StatusRegister2) String() string {
	b := fmt.Sprintf("%08b", byte(sr))
	s := []string{}
	if sr.Suspended() {
		s = append(s, "SUS")
	}
	if sr.Complement() {
		s = append(s, "CMP")
	}
	if lb := sr.SecurityLocks(); lb != 0 {
		s = append(s, fmt.Sprintf("LB=%03b", lb))
	}
	if sr.QuadEnabled() {
		s = append(s, "QE")
	}
	if sr.Locked() {
		s = append(s, "SRL")
	}
	if len(s) == 0 {
		return b
	}
	return b + " " + strings.Join(s, ",")
}

// State is the write-enable state machine as seen through status register 1.
//
//	Ready --WriteEnable--> WriteEnabled --program/erase--> Busy --poll--> Ready
type State int

const (
	StateReady State = iota
	StateWriteEnabled
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateWriteEnabled:
		return "WRITE-ENABLED"
	case StateBusy:
		return "BUSY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (f *Flash) ReadStatus(ctx context.Context) (StatusRegister, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.readStatus(ctx)
}

func (f *Flash) ReadStatus2(ctx context.Context) (StatusRegister2, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	resp := []byte{0}
	if err := f.exec(ctx, OpReadStatus2, 0, nil, resp); err != nil {
		return 0, fmt.Errorf("w25q128: could not read status register 2: %w", err)
	}
	return StatusRegister2(resp[0]), nil
}

// WriteStatus writes status register 1. BUSY and WEL are read-only and
// ignored by the chip.
func (f *Flash) WriteStatus(ctx context.Context, sr StatusRegister) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.waitReady(ctx, OpWriteStatus); err != nil {
		return err
	}
	if err := f.writeEnable(ctx); err != nil {
		return err
	}
	if err := f.exec(ctx, OpWriteStatus, 0, []byte{byte(sr)}, nil); err != nil {
		return fmt.Errorf("w25q128: could not write status register: %w", err)
	}
	return f.waitReady(ctx, OpWriteStatus)
}

// WriteDisable clears the write enable latch.
func (f *Flash) WriteDisable(ctx context.Context) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.exec(ctx, OpWriteDisable, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not disable writes: %w", err)
	}
	return nil
}

func (f *Flash) readStatus(ctx context.Context) (StatusRegister, error) {
	resp := []byte{0}
	if err := f.exec(ctx, OpReadStatus1, 0, nil, resp); err != nil {
		return 0, fmt.Errorf("w25q128: could not read status register: %w", err)
	}
	return StatusRegister(resp[0]), nil
}

// writeEnable sets WEL and confirms it latched. The chip silently drops a
// program or erase without it.
func (f *Flash) writeEnable(ctx context.Context) error {
	if err := f.exec(ctx, OpWriteEnable, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not enable writes: %w", err)
	}
	sr, err := f.readStatus(ctx)
	if err != nil {
		return err
	}
	if !sr.WriteEnabled() {
		return fmt.Errorf("w25q128: %w (status %s)", ErrWriteEnable, sr)
	}
	return nil
}

// waitReady polls BUSY until it clears, the context ends or the bound for
// op expires.
func (f *Flash) waitReady(ctx context.Context, op Opcode) error {
	timeout := f.busyTimeout(op)
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		sr, err := f.readStatus(ctx)
		if err != nil {
			return err
		}
		if !sr.Busy() {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("w25q128: %s: %w after %s", op, ErrTimeout, timeout)
		}
		if err := sleep(ctx, f.config.PollInterval); err != nil {
			return err
		}
	}
}
