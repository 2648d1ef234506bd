package main

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/povring/internal/config"
	"github.com/coreman2200/povring/internal/led"
	"github.com/coreman2200/povring/internal/pixbuf"
)

// hardware is the ring's bus and pins once opened.
type hardware struct {
	port   spi.PortCloser
	bus    spi.Conn
	latch  gpio.PinOut
	oe     gpio.PinOut
	sensor gpio.PinIn
}

func openHardware(cfg *config.Config) (*hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	latch, err := pin(cfg.Pins.Latch)
	if err != nil {
		return nil, err
	}
	oe, err := pin(cfg.Pins.OutputEnable)
	if err != nil {
		return nil, err
	}
	hall, err := pin(cfg.Pins.Sensor)
	if err != nil {
		return nil, err
	}

	speed, err := cfg.Frequency()
	if err != nil {
		return nil, err
	}
	port, err := spireg.Open(cfg.SPI.Dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPI.Dev, err)
	}
	bus, err := led.Connect(port, led.BusOpts{Speed: speed, LSBFirst: cfg.SPI.LSBFirst})
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	if err := latch.Out(gpio.Low); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("latch %s: %w", latch, err)
	}
	if err := led.EnableOutputs(oe); err != nil {
		_ = port.Close()
		return nil, err
	}
	return &hardware{port: port, bus: bus, latch: latch, oe: oe, sensor: hall}, nil
}

func pin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("gpio pin name is empty")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	return p, nil
}

// Close darkens the ring and releases the port.
func (h *hardware) Close() error {
	return errors.Join(led.DisableOutputs(h.oe), h.port.Close())
}

// openDrawer returns the preview target: the console, or a WS281x bench
// strip with one pixel per voxel. The returned func releases it.
func openDrawer(cfg *config.Config) (display.Drawer, func() error, error) {
	n := pixbuf.Boards * pixbuf.VoxelsPerBoard
	if cfg.Preview.Drawer != "nrzled" {
		return screen.New(n), func() error { return nil }, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}
	freq, err := cfg.StripFrequency()
	if err != nil {
		return nil, nil, err
	}
	port, err := spireg.Open(cfg.Preview.Dev)
	if err != nil {
		return nil, nil, fmt.Errorf("open strip %q: %w", cfg.Preview.Dev, err)
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{NumPixels: n, Channels: 3, Freq: freq})
	if err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("nrzled: %w", err)
	}
	return d, func() error { return errors.Join(d.Halt(), port.Close()) }, nil
}
