package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Acquisition
	Source     string // "tcp", "serial" or "mock"
	StreamName string // stream to resolve when no address is given
	StreamAddr string // host:port, skips discovery when set
	SerialPort string
	SerialBaud int
	WinSize    float64 // analysis window, seconds
	Channels   []string

	// Metric
	BandLow   float64 // Hz
	BandHigh  float64 // Hz
	PSDMethod string  // "periodogram", "welch" or "multitaper"

	// Session
	Duration float64 // active phase, seconds

	// Feedback surface
	SurfaceBackend string
	WheelSize      float64
	WheelOffset    float64
	WheelImage     string
	WebAddr        string
	OLEDI2CAddr    uint16

	// Telemetry
	MQTTBroker    string // empty disables telemetry
	MQTTClientID  string
	TopicFeedback string
}

// Default returns the configuration used when no file is given. Every
// field is runnable out of the box against a local simulated stream.
func Default() *Config {
	return &Config{
		Source:     "tcp",
		StreamName: "neuroloop",
		SerialPort: "/dev/ttyUSB0",
		SerialBaud: 115200,
		WinSize:    5,
		Channels:   []string{"O1", "O2"},

		BandLow:   8,
		BandHigh:  13,
		PSDMethod: "multitaper",

		Duration: 60,

		SurfaceBackend: "web",
		WheelSize:      0.4,
		WheelOffset:    0.5,
		WebAddr:        ":8093",
		OLEDI2CAddr:    0x3C,

		MQTTClientID:  "neuroloop-nfb",
		TopicFeedback: "neuroloop/feedback",
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct. Keys
// not present in the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Acquisition
	case "SOURCE":
		if value != "tcp" && value != "serial" && value != "mock" {
			return fmt.Errorf("SOURCE must be tcp, serial or mock, got %q", value)
		}
		c.Source = value
	case "STREAM_NAME":
		c.StreamName = value
	case "STREAM_ADDR":
		c.StreamAddr = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = baud
	case "WIN_SIZE":
		sec, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WIN_SIZE %q: %w", value, err)
		}
		c.WinSize = sec
	case "CHANNELS":
		names := strings.Split(value, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		c.Channels = names

	// Metric
	case "BAND_LOW":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid BAND_LOW %q: %w", value, err)
		}
		c.BandLow = hz
	case "BAND_HIGH":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid BAND_HIGH %q: %w", value, err)
		}
		c.BandHigh = hz
	case "PSD_METHOD":
		if value != "periodogram" && value != "welch" && value != "multitaper" {
			return fmt.Errorf("PSD_METHOD must be periodogram, welch or multitaper, got %q", value)
		}
		c.PSDMethod = value

	// Session
	case "DURATION":
		sec, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DURATION %q: %w", value, err)
		}
		c.Duration = sec

	// Feedback surface
	case "SURFACE_BACKEND":
		c.SurfaceBackend = value
	case "WHEEL_SIZE":
		size, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WHEEL_SIZE %q: %w", value, err)
		}
		c.WheelSize = size
	case "WHEEL_OFFSET":
		offset, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WHEEL_OFFSET %q: %w", value, err)
		}
		c.WheelOffset = offset
	case "WHEEL_IMAGE":
		c.WheelImage = value
	case "WEB_ADDR":
		c.WebAddr = value
	case "OLED_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid OLED_I2C_ADDR %q: %w", value, err)
		}
		c.OLEDI2CAddr = uint16(addr)

	// Telemetry
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_FEEDBACK":
		c.TopicFeedback = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// Validate checks that the configuration describes a runnable session.
func (c *Config) Validate() error {
	if c.WinSize <= 0 {
		return fmt.Errorf("WIN_SIZE must be positive, got %g", c.WinSize)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("DURATION must be positive, got %g", c.Duration)
	}
	if len(c.Channels) != 2 {
		return fmt.Errorf("CHANNELS must name exactly 2 channels, got %d", len(c.Channels))
	}
	if c.BandLow <= 0 || c.BandHigh <= c.BandLow {
		return fmt.Errorf("band [%g, %g] Hz is not a valid frequency range", c.BandLow, c.BandHigh)
	}
	if c.Source == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required when SOURCE=serial")
	}
	if c.Source == "tcp" && c.StreamName == "" && c.StreamAddr == "" {
		return fmt.Errorf("STREAM_NAME or STREAM_ADDR is required when SOURCE=tcp")
	}
	return nil
}

// InitGlobal initializes the global configuration. When configPath is
// empty the defaults are used. Uses sync.Once so this only runs once,
// even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
