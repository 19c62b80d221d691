package w25q128

import "time"

// Chip holds the datasheet parameters of a known part. Timings are the
// maximum values and bound the busy-poll of each operation.
type Chip struct {
	Name     string
	Geometry Geometry

	tRES1 time.Duration
	tDP   time.Duration
	tRST  time.Duration
	tW    time.Duration
	tPP   time.Duration
	tSE   time.Duration
	tBE32 time.Duration
	tBE64 time.Duration
	tCE   time.Duration
}

const (
	JEDECWinbondW25Q128JV   JEDECID = 0xEF4018
	JEDECWinbondW25Q128JVIM JEDECID = 0xEF7018
	JEDECMicronN25Q032      JEDECID = 0x20BA16
)

var knownChips = map[JEDECID]Chip{
	// [W25Q128JV|9.6 AC Electrical Characteristics]
	JEDECWinbondW25Q128JV: {
		Name:     "Winbond W25Q128JV-IQ",
		Geometry: W25Q128,
		tRES1:    3 * time.Microsecond,
		tDP:      3 * time.Microsecond,
		tRST:     30 * time.Microsecond,
		tW:       15 * time.Millisecond,
		tPP:      3 * time.Millisecond,
		tSE:      400 * time.Millisecond,
		tBE32:    1600 * time.Millisecond,
		tBE64:    2000 * time.Millisecond,
		tCE:      200 * time.Second,
	},
	JEDECWinbondW25Q128JVIM: {
		Name:     "Winbond W25Q128JV-IM",
		Geometry: W25Q128,
		tRES1:    3 * time.Microsecond,
		tDP:      3 * time.Microsecond,
		tRST:     30 * time.Microsecond,
		tW:       15 * time.Millisecond,
		tPP:      3 * time.Millisecond,
		tSE:      400 * time.Millisecond,
		tBE32:    1600 * time.Millisecond,
		tBE64:    2000 * time.Millisecond,
		tCE:      200 * time.Second,
	},
	// [N25Q32|Table 38: AC Characteristics and Operating Conditions]
	// No 32KB erase on this part, the 64KB figure is used as a bound.
	JEDECMicronN25Q032: {
		Name: "Micron N25Q032",
		Geometry: Geometry{
			PageSize:   PageSize,
			SectorSize: SectorSize,
			BlockSize:  BlockSize,
			Capacity:   4 * 1024 * 1024,
		},
		tRES1: 30 * time.Microsecond,
		tDP:   3 * time.Microsecond,
		tRST:  30 * time.Microsecond,
		tW:    8 * time.Millisecond,
		tPP:   5 * time.Millisecond,
		tSE:   800 * time.Millisecond,
		tBE32: 3 * time.Second,
		tBE64: 3 * time.Second,
		tCE:   60 * time.Second,
	},
}

// LookupChip returns the parameters of a known JEDEC ID.
func LookupChip(id JEDECID) (Chip, bool) {
	c, ok := knownChips[id]
	return c, ok
}

// timing returns the identified chip's parameter, or the largest value
// among all known chips before identification.
func (f *Flash) timing(get func(*Chip) time.Duration) time.Duration {
	if f.chip != nil {
		return get(f.chip)
	}
	var tmax time.Duration
	for _, c := range knownChips {
		tmax = max(tmax, get(&c))
	}
	return tmax
}

func (f *Flash) tRES1() time.Duration { return f.timing(func(c *Chip) time.Duration { return c.tRES1 }) }
func (f *Flash) tDP() time.Duration   { return f.timing(func(c *Chip) time.Duration { return c.tDP }) }
func (f *Flash) tRST() time.Duration  { return f.timing(func(c *Chip) time.Duration { return c.tRST }) }

// busyTimeout bounds the busy-poll following op. Zero means wait forever.
func (f *Flash) busyTimeout(op Opcode) time.Duration {
	if f.config.UnboundedBusyWait {
		return 0
	}
	if f.config.BusyTimeout > 0 {
		return f.config.BusyTimeout
	}
	var get func(*Chip) time.Duration
	switch op {
	case OpPageProgram:
		get = func(c *Chip) time.Duration { return c.tPP }
	case OpSectorErase:
		get = func(c *Chip) time.Duration { return c.tSE }
	case OpBlockErase32K:
		get = func(c *Chip) time.Duration { return c.tBE32 }
	case OpBlockErase64K:
		get = func(c *Chip) time.Duration { return c.tBE64 }
	case OpChipErase:
		get = func(c *Chip) time.Duration { return c.tCE }
	default:
		get = func(c *Chip) time.Duration { return c.tW }
	}
	return f.timing(get) * timeoutMargin
}

// timeoutMargin absorbs bus latency between status polls.
const timeoutMargin = 2
