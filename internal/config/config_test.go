package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/povring/internal/revolution"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	f, err := c.Frequency()
	require.NoError(t, err)
	assert.Equal(t, 48*physic.MegaHertz, f)
	assert.Equal(t, time.Microsecond, c.LatchHold())
	assert.Equal(t, 20*time.Millisecond, c.SimPeriod())
	assert.Equal(t, time.Second, c.StallAfter())
	assert.Equal(t, 250*time.Millisecond, c.DiagInterval())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	c, err := Load(write(t, `
driver: sim
rotating: true
spi:
  speed: 12MHz
pins:
  latch: GPIO6
`))
	require.NoError(t, err)
	assert.Equal(t, "sim", c.Driver)
	assert.Equal(t, revolution.Options{Rotating: true}, c.Options())
	assert.Equal(t, "GPIO6", c.Pins.Latch)
	assert.Equal(t, "GPIO20", c.Pins.Sensor)

	f, err := c.Frequency()
	require.NoError(t, err)
	assert.Equal(t, 12*physic.MegaHertz, f)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"driver":  "driver: pwm\n",
		"speed":   "spi:\n  speed: fast\n",
		"pattern": "pattern: plaid\n",
		"sim":     "sim:\n  period_ms: 0\n",
		"yaml":    "driver: [\n",
		"drawer":  "preview:\n  drawer: oled\n",
		"strip":   "preview:\n  drawer: nrzled\n  speed: slow\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, body))
			assert.Error(t, err)
		})
	}
}

func TestStripPreview(t *testing.T) {
	c, err := Load(write(t, "driver: sim\npreview:\n  drawer: nrzled\n  dev: SPI1.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "SPI1.0", c.Preview.Dev)

	f, err := c.StripFrequency()
	require.NoError(t, err)
	assert.Equal(t, 2500*physic.KiloHertz, f)
}

func TestImageSkipsPatternCheck(t *testing.T) {
	c := Default()
	c.Image = "/srv/pov/logo.pov"
	c.Pattern = "ignored"
	assert.NoError(t, c.Validate())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	c := Default()
	c.Waterfall = true
	c.Diag.Addr = "127.0.0.1:9000"
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
