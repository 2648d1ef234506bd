// Package layout maps a logical frame onto the ring's physical boards.
//
// The ten boards are mounted as five pairs. Pairs are PairSpacing angular
// pixels apart and the two boards of a pair face opposite sides of the
// shaft, so the rotation illusion needs each board to read a different
// angular column of the image.
package layout

import "github.com/coreman2200/povring/internal/pixbuf"

// Mounting geometry. These are measured from the built ring and are not
// tunables.
const (
	PairCount   = pixbuf.Boards / 2
	PairSpacing = 8  // angular pixels between neighbouring pairs
	PhaseOrigin = 70 // angular pixel of pair 0 relative to the sensor
	HalfTurn    = pixbuf.Pixels / 2
)

// Target addresses one board's data in the pixel buffer.
type Target struct {
	Board int // logical board index, transmission order
	Pixel int // angular pixel to read
	Row   int // physical board to read, after the waterfall shift
}

// Pair returns the two targets for pair i given the current angular pixel
// and the vertical board offset.
func Pair(i, currentPixel, boardOffset int) (first, second Target) {
	first.Board = 2 * i
	first.Row = wrap(first.Board+boardOffset, pixbuf.Boards)
	first.Pixel = wrap(currentPixel+PairSpacing*i+PhaseOrigin, pixbuf.Pixels)

	second.Board = first.Board + 1
	second.Row = wrap(second.Board+boardOffset, pixbuf.Boards)
	second.Pixel = wrap(first.Pixel+HalfTurn, pixbuf.Pixels)
	return first, second
}

// Column lists all boards of a frame in the order they are shifted out.
func Column(currentPixel, boardOffset int) [pixbuf.Boards]Target {
	var out [pixbuf.Boards]Target
	for i := 0; i < PairCount; i++ {
		out[2*i], out[2*i+1] = Pair(i, currentPixel, boardOffset)
	}
	return out
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
