// Package scheduler runs the background loop that emits a column each
// time the ring reaches the next pixel boundary.
package scheduler

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/povring/internal/diagnostics"
	"github.com/coreman2200/povring/internal/led"
	"github.com/coreman2200/povring/internal/revolution"
)

// Transmitter sends one column. *led.Transmitter implements it.
type Transmitter interface {
	Send() (led.Result, error)
}

// ctxEvery is how many polls pass between cancellation checks.
const ctxEvery = 1024

// Scheduler busy-polls the revolution state.
type Scheduler struct {
	state *revolution.State
	tx    Transmitter
	stats *diagnostics.Stats
	log   zerolog.Logger
}

// New returns a Scheduler. stats may be nil.
func New(state *revolution.State, tx Transmitter, stats *diagnostics.Stats) *Scheduler {
	if stats == nil {
		stats = &diagnostics.Stats{}
	}
	return &Scheduler{
		state: state,
		tx:    tx,
		stats: stats,
		// A wedged bus fails every frame; keep the log readable.
		log: log.Logger.Sample(&zerolog.BurstSampler{Burst: 5, Period: time.Second}),
	}
}

// Step polls once and sends a column if one is due. It reports whether a
// column was attempted.
func (s *Scheduler) Step() bool {
	snap := s.state.Load()
	if !snap.Armed || s.state.Elapsed(snap) <= snap.NextPixelDeadline {
		return false
	}

	res, err := s.tx.Send()
	switch res {
	case led.Sent:
		s.stats.Sent()
	case led.Stale:
		s.stats.Stale()
	case led.Dropped:
		s.stats.Dropped()
	case led.Failed:
		s.stats.BusError()
		s.log.Error().Err(err).Int("pixel", snap.CurrentAngularPixel).Msg("column transmission failed")
	}
	return true
}

// Run polls until ctx is done. It holds its OS thread for the whole run.
func (s *Scheduler) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for n := 0; ; n++ {
		if n%ctxEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		s.Step()
	}
}
