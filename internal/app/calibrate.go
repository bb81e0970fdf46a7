package app

import (
	"fmt"
	"log"

	"github.com/neurotap/neuroloop/internal/bandpower"
	"github.com/neurotap/neuroloop/internal/calib"
	"github.com/neurotap/neuroloop/internal/config"
)

// RunCalibrate fills one calibration window from the configured source
// and reports the resulting operating range. Useful for checking
// electrode quality and band choice before committing to a session.
func RunCalibrate() error {
	cfg := config.Get()

	recv, err := openReceiver(cfg)
	if err != nil {
		return err
	}
	defer recv.Close()
	info := recv.Info()
	log.Printf("calibrate: stream %q: %g Hz, channels %v", info.Name, info.Rate, info.Channels)

	idx := make([]int, 0, len(cfg.Channels))
	for _, name := range cfg.Channels {
		found := -1
		for i, ch := range info.Channels {
			if ch == name {
				found = i
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("calibrate: channel %q not present in stream %q %v", name, info.Name, info.Channels)
		}
		idx = append(idx, found)
	}

	method := bandpower.Method(cfg.PSDMethod)
	band := bandpower.Band{Low: cfg.BandLow, High: cfg.BandHigh}

	win := calib.NewWindow()
	log.Printf("calibrate: collecting %d windows of %g s", calib.Capacity, cfg.WinSize)

	for i := 0; i < calib.Capacity; i++ {
		if err := recv.Acquire(); err != nil {
			return fmt.Errorf("calibrate: acquisition failed: %w", err)
		}
		data, _ := recv.Window()

		selected := make([][]float64, len(idx))
		for j, ch := range idx {
			selected[j] = data[ch]
		}
		powers, err := bandpower.Estimate(selected, info.Rate, method, band)
		if err != nil {
			return fmt.Errorf("calibrate: metric failed: %w", err)
		}
		var sum float64
		for _, p := range powers {
			sum += p
		}
		win.Append(sum / float64(len(powers)))

		if (i+1)%10 == 0 {
			log.Printf("calibrate: %d/%d windows", i+1, calib.Capacity)
		}
	}

	low, high, err := win.Range(5, 95)
	if err != nil {
		return err
	}
	fmt.Printf("band [%g, %g] Hz on %v\n", cfg.BandLow, cfg.BandHigh, cfg.Channels)
	fmt.Printf("operating range (5th-95th pct): [%.4f, %.4f]\n", low, high)
	if high <= low {
		fmt.Println("WARNING: flat metric, check electrode contact")
	}
	return nil
}
