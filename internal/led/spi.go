package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DefaultSpeed clocks the chain as fast as the driver chips accept.
const DefaultSpeed = 48 * physic.MegaHertz

// BusOpts configures the SPI link to the chain.
type BusOpts struct {
	Speed    physic.Frequency
	LSBFirst bool
}

// Connect opens p in mode 0 with 8-bit words, most significant bit first
// unless LSBFirst is set.
func Connect(p spi.Port, o BusOpts) (spi.Conn, error) {
	if o.Speed <= 0 {
		o.Speed = DefaultSpeed
	}
	mode := spi.Mode0
	if o.LSBFirst {
		mode |= spi.LSBFirst
	}
	c, err := p.Connect(o.Speed, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("spi connect %s: %w", o.Speed, err)
	}
	return c, nil
}

// EnableOutputs asserts the active-low output enable line.
func EnableOutputs(oe gpio.PinOut) error {
	if err := oe.Out(gpio.Low); err != nil {
		return fmt.Errorf("output enable %s: %w", oe, err)
	}
	return nil
}

// DisableOutputs releases the output enable line, darkening every board.
func DisableOutputs(oe gpio.PinOut) error {
	if err := oe.Out(gpio.High); err != nil {
		return fmt.Errorf("output disable %s: %w", oe, err)
	}
	return nil
}
