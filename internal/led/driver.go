// Package led pushes angular columns to the ring's shift-register chain.
package led

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/povring/internal/layout"
	"github.com/coreman2200/povring/internal/pixbuf"
	"github.com/coreman2200/povring/internal/revolution"
)

// Bus is the serial link to the driver chips. periph's spi.Conn satisfies it.
type Bus interface {
	Tx(w, r []byte) error
}

// Latch is the strobe that moves shift-register contents to the outputs.
// Any gpio.PinOut satisfies it.
type Latch interface {
	Out(l gpio.Level) error
}

// Result classifies one call to Send.
type Result int

const (
	// Sent means the column was latched and the phase advanced.
	Sent Result = iota
	// Stale means a trigger fired mid-column; nothing was latched.
	Stale
	// Dropped means the column was latched but a trigger fired before the
	// phase could advance; the new revolution's state was kept.
	Dropped
	// Failed means a bus or latch write failed.
	Failed
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "sent"
	case Stale:
		return "stale"
	case Dropped:
		return "dropped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// DefaultLatchHold is the minimum strobe width of the driver chips.
const DefaultLatchHold = time.Microsecond

// FrameBytes is the length of one column on the wire.
const FrameBytes = pixbuf.Boards * pixbuf.Lanes

// Transmitter streams columns of img according to state.
type Transmitter struct {
	mu    sync.Mutex // owns the bus for the length of a column
	bus   Bus
	latch Latch
	hold  time.Duration
	state *revolution.State
	img   *pixbuf.Buffer
	board [pixbuf.Lanes]byte
}

// NewTransmitter returns a Transmitter. hold <= 0 selects DefaultLatchHold.
func NewTransmitter(bus Bus, latch Latch, hold time.Duration, state *revolution.State, img *pixbuf.Buffer) *Transmitter {
	if hold <= 0 {
		hold = DefaultLatchHold
	}
	return &Transmitter{bus: bus, latch: latch, hold: hold, state: state, img: img}
}

// Send shifts out the column for the current angular pixel and latches it.
// A trigger seen before any board aborts the column without latching.
func (t *Transmitter) Send() (Result, error) {
	snap := t.state.Load()

	t.mu.Lock()
	for i := 0; i < layout.PairCount; i++ {
		first, second := layout.Pair(i, snap.CurrentAngularPixel, snap.VerticalBoardOffset)
		for _, tgt := range [2]layout.Target{first, second} {
			if t.state.Stale(snap) {
				t.mu.Unlock()
				return Stale, nil
			}
			if err := t.sendBoard(tgt); err != nil {
				t.mu.Unlock()
				return Failed, fmt.Errorf("board %d: %w", tgt.Board, err)
			}
		}
	}
	t.mu.Unlock()

	if err := t.pulse(); err != nil {
		return Failed, err
	}
	if !t.state.Commit(snap) {
		return Dropped, nil
	}
	return Sent, nil
}

// sendBoard writes one board's lanes, highest lane first.
func (t *Transmitter) sendBoard(tgt layout.Target) error {
	lanes := &t.img[tgt.Pixel][tgt.Row]
	for j := 0; j < pixbuf.Lanes; j++ {
		t.board[j] = lanes[pixbuf.Lanes-1-j]
	}
	return t.bus.Tx(t.board[:], nil)
}

// Blank clears every board and latches the empty column.
func (t *Transmitter) Blank() error {
	t.mu.Lock()
	var zero [FrameBytes]byte
	err := t.bus.Tx(zero[:], nil)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("blank: %w", err)
	}
	return t.pulse()
}

func (t *Transmitter) pulse() error {
	if err := t.latch.Out(gpio.High); err != nil {
		return fmt.Errorf("latch high: %w", err)
	}
	spin(t.hold)
	if err := t.latch.Out(gpio.Low); err != nil {
		return fmt.Errorf("latch low: %w", err)
	}
	return nil
}

// spin busy-waits; sleeping would hand the thread back to the scheduler
// for far longer than the strobe.
func spin(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}
