package display

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gpudisplay/pkg/egl"
)

// RestoreLostDevice resets the backend device and recreates every swap
// chain. Recovery is refused while any context asked for reset
// notification: the application has to destroy those contexts first.
//
// Surface recreation is best effort. A surface that cannot be recreated is
// left without a swap chain and the others are kept.
func (d *Display) RestoreLostDevice(th *Thread) error {
	const op = "RestoreLostDevice"
	if !d.IsInitialized() {
		return th.fail(op, egl.ErrNotInitialized)
	}
	if err := d.restoreLostDevice(th); err != nil {
		return th.fail(op, err)
	}
	th.succeed()
	return nil
}

func (d *Display) restoreLostDevice(th *Thread) error {
	for c := range d.contexts {
		if c.resetNotification {
			d.log.Warn("device recovery refused", zap.Uint64("context", c.id))
			return errRecoveryRefused
		}
	}

	// Free presentation resources so the device reset can succeed.
	for s := range d.surfaces {
		s.Release()
	}

	if err := d.backend.ResetDevice(); err != nil {
		d.log.Error("device reset failed", zap.Error(err))
		return egl.Wrap(egl.BadAlloc, "", err)
	}
	d.log.Info("device reset")

	var errs error
	for s := range d.surfaces {
		if err := s.resetSwapChain(th); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("surface %d: %w", s.id, err))
		}
	}
	if errs != nil {
		d.log.Warn("surfaces left without swap chain", zap.Error(errs))
	}
	return nil
}
