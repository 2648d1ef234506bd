// Package sensor turns the once-per-revolution magnet pulse into calls to
// the revolution trigger.
package sensor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Triggerer is called once per revolution. *revolution.State implements it.
type Triggerer interface {
	Trigger()
}

// poll bounds how long Watch blocks between cancellation checks.
const poll = 100 * time.Millisecond

// Watch arms pin for falling edges with the pull-up enabled and calls
// t.Trigger for every edge until ctx is done. The sensor pulls the line
// low while the magnet passes.
func Watch(ctx context.Context, pin gpio.PinIn, t Triggerer) error {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("sensor %s: %w", pin, err)
	}
	defer pin.In(gpio.PullUp, gpio.NoEdge)

	// Edges are handled on one thread so triggers never run concurrently.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		if pin.WaitForEdge(poll) {
			t.Trigger()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Simulate triggers every period, for bench runs without a motor.
func Simulate(ctx context.Context, period time.Duration, t Triggerer) error {
	if period <= 0 {
		return fmt.Errorf("sensor: simulated period must be positive, got %s", period)
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			t.Trigger()
		}
	}
}
