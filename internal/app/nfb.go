// Package app wires configuration, acquisition, metric, session and
// feedback into the runnable tools under cmd/.
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/neurotap/neuroloop/internal/bandpower"
	"github.com/neurotap/neuroloop/internal/config"
	"github.com/neurotap/neuroloop/internal/eeg"
	"github.com/neurotap/neuroloop/internal/feedback"
	"github.com/neurotap/neuroloop/internal/session"
	"github.com/neurotap/neuroloop/internal/telemetry"
)

// resolveTimeout bounds network discovery of a named stream.
const resolveTimeout = 3 * time.Second

// RunNFB runs one neurofeedback session end to end: open the configured
// signal source, warm up the calibration window and drive the wheels
// until the session duration elapses.
func RunNFB(verbose bool) error {
	cfg := config.Get()

	recv, err := openReceiver(cfg)
	if err != nil {
		return err
	}
	defer recv.Close()
	info := recv.Info()
	log.Printf("nfb: stream %q: %g Hz, channels %v", info.Name, info.Rate, info.Channels)

	var pub telemetry.Publisher = telemetry.Nop{}
	if cfg.MQTTBroker != "" {
		pub, err = telemetry.NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicFeedback)
		if err != nil {
			// Telemetry is a side channel, a missing broker must not
			// keep the session from running.
			log.Printf("nfb: telemetry disabled: %v", err)
			pub = telemetry.Nop{}
		}
	}
	defer pub.Close()

	wheel, err := feedback.NewDoubleSpinningWheel(feedback.Config{
		Size:      cfg.WheelSize,
		Offset:    cfg.WheelOffset,
		ImagePath: cfg.WheelImage,
		Options: feedback.Options{
			Backend: cfg.SurfaceBackend,
			WebAddr: cfg.WebAddr,
			I2CAddr: cfg.OLEDI2CAddr,
		},
	})
	if err != nil {
		return fmt.Errorf("nfb: building feedback: %w", err)
	}
	defer wheel.Close()

	method := bandpower.Method(cfg.PSDMethod)
	band := bandpower.Band{Low: cfg.BandLow, High: cfg.BandHigh}

	sess := &session.Session{
		Receiver: recv,
		Metric: func(data [][]float64, fs float64) ([]float64, error) {
			return bandpower.Estimate(data, fs, method, band)
		},
		Wheel:     wheel,
		Telemetry: pub,
		Channels:  cfg.Channels,
		Duration:  time.Duration(cfg.Duration * float64(time.Second)),
		Verbose:   verbose,
	}
	return sess.Run()
}

// openReceiver builds the signal source named by SOURCE.
func openReceiver(cfg *config.Config) (eeg.Receiver, error) {
	switch cfg.Source {
	case "mock":
		return eeg.NewMock(cfg.StreamName, cfg.WinSize)
	case "serial":
		return eeg.OpenSerial(cfg.SerialPort, uint(cfg.SerialBaud), cfg.WinSize)
	case "tcp":
		addr := cfg.StreamAddr
		if addr == "" {
			log.Printf("nfb: resolving stream %q on the local network", cfg.StreamName)
			resolved, err := eeg.Resolve(cfg.StreamName, resolveTimeout)
			if err != nil {
				return nil, fmt.Errorf("nfb: stream %q not found: %w", cfg.StreamName, err)
			}
			addr = resolved
		}
		return eeg.Dial(addr, cfg.WinSize)
	default:
		return nil, fmt.Errorf("nfb: unknown source %q", cfg.Source)
	}
}
