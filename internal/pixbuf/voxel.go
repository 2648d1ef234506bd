package pixbuf

import "image/color"

// Voxel is a 3-bit colour, 0brgb.
type Voxel uint8

const (
	Black  Voxel = 0b000
	Blue   Voxel = 0b001
	Green  Voxel = 0b010
	Teal   Voxel = 0b011
	Red    Voxel = 0b100
	Pink   Voxel = 0b101
	Yellow Voxel = 0b110
	White  Voxel = 0b111
)

const (
	redBit   Voxel = 0b100
	greenBit Voxel = 0b010
	blueBit  Voxel = 0b001
)

func (v Voxel) R() bool { return v&redBit != 0 }
func (v Voxel) G() bool { return v&greenBit != 0 }
func (v Voxel) B() bool { return v&blueBit != 0 }

// NRGBA maps each set channel to full intensity.
func (v Voxel) NRGBA() color.NRGBA {
	c := color.NRGBA{A: 255}
	if v.R() {
		c.R = 255
	}
	if v.G() {
		c.G = 255
	}
	if v.B() {
		c.B = 255
	}
	return c
}

// Pack concatenates sixteen voxels into a 48-bit big-endian word and splits
// it into lanes. Voxel 0 lands in the top bits of lane 0.
func Pack(vs [VoxelsPerBoard]Voxel) [Lanes]byte {
	var acc uint64
	for _, v := range vs {
		acc = acc<<3 | uint64(v&White)
	}
	var out [Lanes]byte
	for i := range out {
		out[i] = byte(acc >> (8 * (Lanes - 1 - i)))
	}
	return out
}

// Unpack is the inverse of Pack.
func Unpack(lanes [Lanes]byte) [VoxelsPerBoard]Voxel {
	var acc uint64
	for _, l := range lanes {
		acc = acc<<8 | uint64(l)
	}
	var out [VoxelsPerBoard]Voxel
	for i := range out {
		shift := 3 * (VoxelsPerBoard - 1 - i)
		out[i] = Voxel(acc>>shift) & White
	}
	return out
}
