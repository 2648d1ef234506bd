package revolution

import "github.com/coreman2200/povring/internal/pixbuf"

// Trigger is the sensor handler, run once per revolution on the falling
// edge. It must be called from a single goroutine. It does not block and
// publishes the new state with one atomic store.
func (s *State) Trigger() {
	now := s.clock.Micros()
	prev := s.cur.Load()

	next := &Snapshot{
		Generation: prev.Generation + 1,
		Armed:      true,
		Rotation:   prev.Rotation,
	}
	next.PeriodMicros = float64(now - prev.PhaseOrigin)
	next.PixelQuantumMicros = next.PeriodMicros / AngularResolution

	// Pixel 0 is due right away, aligned with the sensor.
	next.PhaseOrigin = now
	next.NextPixelDeadline = 0

	next.CurrentAngularPixel = prev.StartAngularPixel

	if s.opts.Waterfall && prev.Parity {
		next.VerticalBoardOffset = countdown(prev.VerticalBoardOffset)
	}
	next.Parity = !prev.Parity

	if s.opts.Rotating {
		next.StartAngularPixel = (prev.StartAngularPixel + 1) % AngularResolution
	}

	s.cur.Store(next)
}

// countdown steps 9, 8, ... 0, 9.
func countdown(off int) int {
	if off <= 0 {
		off = pixbuf.Boards
	}
	return off - 1
}
