package pixbuf_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/coreman2200/povring/internal/pixbuf"
)

func TestPackMatchesRendererBitString(t *testing.T) {
	// 0b111 followed by fifteen black voxels: "111" + 45 zeros.
	var vs [VoxelsPerBoard]Voxel
	vs[0] = White
	assert.Equal(t, [Lanes]byte{0b11100000, 0, 0, 0, 0, 0}, Pack(vs))

	// Last voxel sits in the low bits of lane 5.
	vs = [VoxelsPerBoard]Voxel{}
	vs[15] = Red
	assert.Equal(t, [Lanes]byte{0, 0, 0, 0, 0, 0b00000100}, Pack(vs))

	// Voxel 2 straddles lanes 0 and 1.
	vs = [VoxelsPerBoard]Voxel{}
	vs[2] = Teal
	assert.Equal(t, [Lanes]byte{0b00000001, 0b10000000, 0, 0, 0, 0}, Pack(vs))
}

func TestUnpackInvertsPack(t *testing.T) {
	var vs [VoxelsPerBoard]Voxel
	for i := range vs {
		vs[i] = Voxel(i % 8)
	}
	assert.Equal(t, vs, Unpack(Pack(vs)))
}

func TestSetVoxel(t *testing.T) {
	b := new(Buffer)
	b.SetVoxel(42, 3, 7, Pink)
	assert.Equal(t, Pink, b.Voxel(42, 3, 7))
	assert.Equal(t, Black, b.Voxel(42, 3, 6))
	assert.Equal(t, [Lanes]byte{}, b[42][2])
}

func TestVoxelNRGBA(t *testing.T) {
	c := Yellow.NRGBA()
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.G)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(255), c.A)
}

func TestReadRejectsWrongSize(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, Size-1)))
	assert.ErrorIs(t, err, ErrSize)

	_, err = Read(bytes.NewReader(make([]byte, Size+1)))
	assert.ErrorIs(t, err, ErrSize)

	_, err = Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrSize)
}

func TestReadLayout(t *testing.T) {
	raw := make([]byte, Size)
	// pixel 1, board 2, lane 3
	raw[1*Boards*Lanes+2*Lanes+3] = 0xAB
	b, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), b[1][2][3])
}

func TestSaveLoad(t *testing.T) {
	b, err := Pattern(BoardBars)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bars.pov")
	require.NoError(t, Save(path, b))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.pov"))
	assert.Error(t, err)
}

func TestPatterns(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			b, err := Pattern(k)
			require.NoError(t, err)
			require.NotNil(t, b)
		})
	}

	sweep, _ := Pattern(IndexSweep)
	assert.Equal(t, White, sweep.Voxel(0, 9, 15))
	assert.Equal(t, Black, sweep.Voxel(1, 0, 0))

	rgb, _ := Pattern(RGBChannels)
	assert.Equal(t, Red, rgb.Voxel(50, 0, 0))
	assert.Equal(t, Green, rgb.Voxel(50, 1, 0))
	assert.Equal(t, Blue, rgb.Voxel(50, 2, 0))

	bars, _ := Pattern(BoardBars)
	assert.Equal(t, White, bars.Voxel(10, 4, 4))
	assert.Equal(t, Black, bars.Voxel(10, 4, 5))

	_, err := Pattern("plaid")
	assert.Error(t, err)
}
