package revolution

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHundredFramesWrapToStart(t *testing.T) {
	s, clk := newTestState(Options{})
	s.Trigger()
	clk.Advance(20 * time.Millisecond)
	s.Trigger()
	require.Equal(t, 200.0, s.Load().PixelQuantumMicros)

	seen := make([]int, 0, AngularResolution)
	for i := 0; i < AngularResolution; i++ {
		snap := s.Load()
		seen = append(seen, snap.CurrentAngularPixel)
		require.True(t, s.Commit(snap))
	}
	for i, p := range seen {
		assert.Equal(t, i, p)
	}
	assert.Equal(t, s.Load().StartAngularPixel, s.Load().CurrentAngularPixel)
	assert.InDelta(t, 20000.0, s.Load().NextPixelDeadline, 1e-6)
}

func TestCommitFailsAfterTrigger(t *testing.T) {
	s, clk := newTestState(Options{})
	s.Trigger()
	clk.Advance(10 * time.Millisecond)

	snap := s.Load()
	assert.False(t, s.Stale(snap))
	s.Trigger()
	assert.True(t, s.Stale(snap))

	after := *s.Load()
	assert.False(t, s.Commit(snap))
	assert.Equal(t, after, *s.Load())
}

func TestCommitOnlyOncePerSnapshot(t *testing.T) {
	s, _ := newTestState(Options{})
	s.Trigger()
	snap := s.Load()
	require.True(t, s.Commit(snap))
	assert.False(t, s.Commit(snap))
	assert.Equal(t, 1, s.Load().CurrentAngularPixel)
}

func TestElapsed(t *testing.T) {
	s, clk := newTestState(Options{})
	s.Trigger()
	clk.Advance(350 * time.Microsecond)
	assert.Equal(t, 350.0, s.Elapsed(s.Load()))
}

func TestConcurrentTriggerAndCommit(t *testing.T) {
	s, clk := newTestState(Options{Rotating: true, Waterfall: true})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			clk.Advance(time.Millisecond)
			s.Trigger()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			snap := s.Load()
			s.Commit(snap)
			_ = s.Stale(snap)
		}
	}()
	wg.Wait()

	snap := s.Load()
	assert.Equal(t, uint64(1000), snap.Generation)
	assert.Less(t, snap.CurrentAngularPixel, AngularResolution)
	assert.Less(t, snap.VerticalBoardOffset, 10)
}
