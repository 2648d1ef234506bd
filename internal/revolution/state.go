// Package revolution measures the ring's period and owns the timing and
// rotation state shared between the sensor trigger and the frame loop.
//
// The state is published as immutable snapshots through a single atomic
// pointer. The trigger handler swaps in a new snapshot with a bumped
// generation; a frame that started on an older generation is stale and its
// bookkeeping is discarded by the compare-and-swap in Commit.
package revolution

import (
	"sync/atomic"

	"github.com/coreman2200/povring/internal/pixbuf"
)

// AngularResolution is the number of pixel slots per revolution.
const AngularResolution = pixbuf.Pixels

// Revolution holds the measured timing of the current revolution.
type Revolution struct {
	PeriodMicros       float64
	PixelQuantumMicros float64
	PhaseOrigin        int64   // clock reading at the last trigger
	NextPixelDeadline  float64 // µs after PhaseOrigin
}

// Rotation holds the position of the image on the ring.
type Rotation struct {
	CurrentAngularPixel int
	StartAngularPixel   int
	VerticalBoardOffset int
	Parity              bool
}

// Snapshot is one published version of the shared state. Never mutate a
// snapshot obtained from Load.
type Snapshot struct {
	Generation uint64 // number of triggers seen
	Armed      bool   // set by the first trigger
	Revolution
	Rotation
}

// Options are fixed at start-up.
type Options struct {
	Rotating  bool // advance the start pixel every revolution
	Waterfall bool // scroll the image down one board every other revolution
}

// State is the shared revolution and rotation state.
type State struct {
	opts  Options
	clock Clock
	cur   atomic.Pointer[Snapshot]
}

// NewState starts measuring the first period from now.
func NewState(opts Options, clock Clock) *State {
	s := &State{opts: opts, clock: clock}
	s.cur.Store(&Snapshot{Revolution: Revolution{PhaseOrigin: clock.Micros()}})
	return s
}

func (s *State) Options() Options { return s.opts }

// Load returns the current snapshot.
func (s *State) Load() *Snapshot { return s.cur.Load() }

// Stale reports whether a trigger has fired since snap was loaded.
func (s *State) Stale(snap *Snapshot) bool {
	return s.cur.Load().Generation != snap.Generation
}

// Elapsed returns microseconds since the trigger that produced snap.
func (s *State) Elapsed(snap *Snapshot) float64 {
	return float64(s.clock.Micros() - snap.PhaseOrigin)
}

// Commit advances snap by one angular pixel and one quantum. It fails, and
// leaves the state untouched, when snap is no longer the published
// snapshot.
func (s *State) Commit(snap *Snapshot) bool {
	next := *snap
	next.CurrentAngularPixel = (snap.CurrentAngularPixel + 1) % AngularResolution
	next.NextPixelDeadline = snap.NextPixelDeadline + snap.PixelQuantumMicros
	return s.cur.CompareAndSwap(snap, &next)
}
