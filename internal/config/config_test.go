package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "neuroloop.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "multitaper", cfg.PSDMethod)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
# session setup
SOURCE=mock
STREAM_NAME=bench
WIN_SIZE=2.5
DURATION=120
BAND_LOW=4
BAND_HIGH=8
PSD_METHOD=periodogram
CHANNELS=C3, C4
SURFACE_BACKEND=headless
WHEEL_SIZE=0.3
MQTT_BROKER=tcp://localhost:1883
OLED_I2C_ADDR=0x3D
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Source)
	assert.Equal(t, "bench", cfg.StreamName)
	assert.Equal(t, 2.5, cfg.WinSize)
	assert.Equal(t, 120.0, cfg.Duration)
	assert.Equal(t, 4.0, cfg.BandLow)
	assert.Equal(t, 8.0, cfg.BandHigh)
	assert.Equal(t, "periodogram", cfg.PSDMethod)
	assert.Equal(t, []string{"C3", "C4"}, cfg.Channels)
	assert.Equal(t, "headless", cfg.SurfaceBackend)
	assert.Equal(t, 0.3, cfg.WheelSize)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, uint16(0x3D), cfg.OLEDI2CAddr)

	// Keys not in the file keep their defaults.
	assert.Equal(t, 115200, cfg.SerialBaud)
	assert.Equal(t, "neuroloop/feedback", cfg.TopicFeedback)
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "NO_SUCH_KEY=1",
		"malformed line":  "SOURCE",
		"bad source":      "SOURCE=bluetooth",
		"bad psd method":  "PSD_METHOD=lombscargle",
		"bad win size":    "WIN_SIZE=five",
		"inverted band":   "BAND_LOW=13\nBAND_HIGH=8",
		"zero duration":   "DURATION=0",
		"single channel":  "CHANNELS=O1",
		"serial, no port": "SOURCE=serial\nSERIAL_PORT=",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/neuroloop.conf")
	assert.Error(t, err)
}
