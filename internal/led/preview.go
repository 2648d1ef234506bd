package led

import (
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/povring/internal/pixbuf"
)

// Preview stands in for the ring when no hardware is attached. It keeps a
// shadow register like the driver chips, swaps it into the output register
// on the latch's rising edge, and draws the latched column at most once per
// throttle interval.
type Preview struct {
	mu       sync.Mutex
	drawer   display.Drawer
	throttle time.Duration
	lastDraw time.Time

	shadow  []byte
	output  [FrameBytes]byte
	level   gpio.Level
	latched uint64
}

// NewPreview draws to d; d may be nil to only record.
func NewPreview(d display.Drawer, throttle time.Duration) *Preview {
	return &Preview{drawer: d, throttle: throttle, shadow: make([]byte, 0, FrameBytes)}
}

// Tx shifts w into the shadow register. Bytes beyond one column fall off
// the end of the chain.
func (p *Preview) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shadow = append(p.shadow, w...)
	if n := len(p.shadow); n > FrameBytes {
		p.shadow = append(p.shadow[:0], p.shadow[n-FrameBytes:]...)
	}
	return nil
}

// Out implements Latch.
func (p *Preview) Out(l gpio.Level) error {
	p.mu.Lock()
	rising := l == gpio.High && p.level == gpio.Low
	p.level = l
	if !rising {
		p.mu.Unlock()
		return nil
	}
	copy(p.output[:], p.shadow)
	p.shadow = p.shadow[:0]
	p.latched++

	now := time.Now()
	if p.drawer == nil || now.Sub(p.lastDraw) < p.throttle {
		p.mu.Unlock()
		return nil
	}
	p.lastDraw = now
	img := p.image()
	p.mu.Unlock()

	return p.drawer.Draw(p.drawer.Bounds(), img, image.Point{})
}

// Latched returns the number of columns latched so far.
func (p *Preview) Latched() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latched
}

// Output returns a copy of the output register, in wire order.
func (p *Preview) Output() [FrameBytes]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// Board decodes logical board n from the output register.
func (p *Preview) Board(n int) [pixbuf.VoxelsPerBoard]pixbuf.Voxel {
	out := p.Output()
	return pixbuf.Unpack(lanesOf(out[:], n))
}

// image lays the boards end to end, hub first, one row.
func (p *Preview) image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, pixbuf.Boards*pixbuf.VoxelsPerBoard, 1))
	for b := 0; b < pixbuf.Boards; b++ {
		for r, v := range pixbuf.Unpack(lanesOf(p.output[:], b)) {
			im.SetNRGBA(b*pixbuf.VoxelsPerBoard+r, 0, v.NRGBA())
		}
	}
	return im
}

// lanesOf undoes the wire order of board n.
func lanesOf(wire []byte, n int) [pixbuf.Lanes]byte {
	var lanes [pixbuf.Lanes]byte
	b := wire[n*pixbuf.Lanes : (n+1)*pixbuf.Lanes]
	for j := range lanes {
		lanes[j] = b[pixbuf.Lanes-1-j]
	}
	return lanes
}

func (p *Preview) String() string { return "preview" }
