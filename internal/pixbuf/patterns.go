package pixbuf

import "fmt"

// Kind names a built-in bring-up pattern.
type Kind string

const (
	Blank       Kind = "blank"
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
	BoardBars   Kind = "board_bars"
)

// Kinds lists the patterns accepted by Pattern.
func Kinds() []Kind { return []Kind{Blank, IndexSweep, RGBChannels, BoardBars} }

// Pattern builds a test image used to check alignment and wiring without
// a rendered image.
func Pattern(k Kind) (*Buffer, error) {
	b := new(Buffer)
	switch k {
	case Blank:
	case IndexSweep:
		// Angular pixel 0 only, should sit right on the sensor.
		for bd := 0; bd < Boards; bd++ {
			fill(b, 0, bd, White)
		}
	case RGBChannels:
		cols := [3]Voxel{Red, Green, Blue}
		for p := 0; p < Pixels; p++ {
			for bd := 0; bd < Boards; bd++ {
				fill(b, p, bd, cols[bd%3])
			}
		}
	case BoardBars:
		// Board n lights n+1 voxels from the hub outwards.
		for p := 0; p < Pixels; p++ {
			for bd := 0; bd < Boards; bd++ {
				var vs [VoxelsPerBoard]Voxel
				for r := 0; r <= bd; r++ {
					vs[r] = White
				}
				b[p][bd] = Pack(vs)
			}
		}
	default:
		return nil, fmt.Errorf("pixbuf: unknown pattern %q", k)
	}
	return b, nil
}

func fill(b *Buffer, pixel, board int, v Voxel) {
	var vs [VoxelsPerBoard]Voxel
	for i := range vs {
		vs[i] = v
	}
	b[pixel][board] = Pack(vs)
}
