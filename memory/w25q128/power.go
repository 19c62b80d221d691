package w25q128

import (
	"context"
	"fmt"
)

// Init wakes the chip from power-down and identifies it. Known parts select
// their datasheet timings; unknown ones keep the conservative maximum.
func (f *Flash) Init(ctx context.Context) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.wakeUp(ctx); err != nil {
		return err
	}
	id, err := f.readJEDECID(ctx)
	if err != nil {
		return err
	}
	chip, ok := LookupChip(id)
	if !ok {
		f.chip = nil
		f.log.Warn("unknown flash chip", "jedec", id.String())
		return nil
	}
	f.chip = &chip
	f.log.Debug("flash identified", "jedec", id.String(), "name", chip.Name)
	if chip.Geometry.Capacity != f.config.Geometry.Capacity {
		f.log.Warn("configured capacity differs from chip",
			"configured", f.config.Geometry.Capacity, "chip", chip.Geometry.Capacity)
	}
	return nil
}

// PowerDown puts the chip in deep power-down; only WakeUp is accepted after.
func (f *Flash) PowerDown(ctx context.Context) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.exec(ctx, OpPowerDown, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not power down: %w", err)
	}
	return sleep(ctx, f.tDP())
}

func (f *Flash) WakeUp(ctx context.Context) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.wakeUp(ctx)
}

// Reset issues the enable-reset/reset pair. Any erase or program in progress
// is aborted and its data is undefined.
func (f *Flash) Reset(ctx context.Context) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.exec(ctx, OpEnableReset, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not enable reset: %w", err)
	}
	if err := f.exec(ctx, OpReset, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not reset: %w", err)
	}
	return sleep(ctx, f.tRST())
}

func (f *Flash) wakeUp(ctx context.Context) error {
	if err := f.exec(ctx, OpReleasePowerDown, 0, nil, nil); err != nil {
		return fmt.Errorf("w25q128: could not release power-down: %w", err)
	}
	return sleep(ctx, f.tRES1())
}
