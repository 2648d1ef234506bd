package sensor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type counter struct{ n atomic.Int64 }

func (c *counter) Trigger() { c.n.Add(1) }

func TestWatchTriggersOnEdges(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO20", EdgesChan: make(chan gpio.Level)}
	c := &counter{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, pin, c) }()

	// Edges raced against the pin's initial flush may be swallowed, so
	// keep feeding until enough land.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case pin.EdgesChan <- gpio.Low:
			case <-stop:
				return
			}
		}
	}()

	require.Eventually(t, func() bool { return c.n.Load() >= 3 }, 2*time.Second, time.Millisecond)
	close(stop)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, gpio.PullUp, pin.Pull())
}

// brokenPin refuses to be configured.
type brokenPin struct{ gpiotest.Pin }

func (p *brokenPin) In(gpio.Pull, gpio.Edge) error { return errors.New("edge detection unsupported") }

func TestWatchReportsConfigError(t *testing.T) {
	pin := &brokenPin{Pin: gpiotest.Pin{N: "GPIO20"}}
	err := Watch(context.Background(), pin, &counter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GPIO20")
}

func TestSimulate(t *testing.T) {
	c := &counter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Simulate(ctx, time.Millisecond, c) }()

	require.Eventually(t, func() bool { return c.n.Load() >= 5 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSimulateRejectsBadPeriod(t *testing.T) {
	assert.Error(t, Simulate(context.Background(), 0, &counter{}))
}
