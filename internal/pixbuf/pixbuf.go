// Package pixbuf holds the pre-rendered image streamed to the ring.
//
// A Buffer is indexed [angular pixel][board][lane]. Each board carries
// sixteen radial voxels of three bits (48 bits), split into six lanes.
package pixbuf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	Pixels         = 100 // angular pixels per revolution
	Boards         = 10
	Lanes          = 6 // bytes per board
	VoxelsPerBoard = 16

	// Size is the length of a raw image file.
	Size = Pixels * Boards * Lanes
)

// Buffer is the read-only image handed to the transmitter.
type Buffer [Pixels][Boards][Lanes]byte

var ErrSize = errors.New("pixbuf: image must be exactly 6000 bytes")

// Read decodes a raw image: pixels outermost, lanes innermost, no header.
func Read(r io.Reader) (*Buffer, error) {
	var raw [Size]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrSize
		}
		return nil, err
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, ErrSize
	}

	b := new(Buffer)
	off := 0
	for p := range b {
		for bd := range b[p] {
			copy(b[p][bd][:], raw[off:off+Lanes])
			off += Lanes
		}
	}
	return b, nil
}

// Load reads a raw image file.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	b, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return b, nil
}

// WriteTo encodes b in the raw format understood by Read.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	raw := make([]byte, 0, Size)
	for p := range b {
		for bd := range b[p] {
			raw = append(raw, b[p][bd][:]...)
		}
	}
	n, err := w.Write(raw)
	return int64(n), err
}

// Save writes b to path.
func Save(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Voxel returns the colour at (pixel, board, radius).
func (b *Buffer) Voxel(pixel, board, radius int) Voxel {
	return Unpack(b[pixel][board])[radius]
}

// SetVoxel replaces the voxel at (pixel, board, radius).
func (b *Buffer) SetVoxel(pixel, board, radius int, v Voxel) {
	vs := Unpack(b[pixel][board])
	vs[radius] = v
	b[pixel][board] = Pack(vs)
}
