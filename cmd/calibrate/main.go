package main

import (
	"flag"
	"log"

	"github.com/neurotap/neuroloop/internal/app"
	"github.com/neurotap/neuroloop/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	stream := flag.String("s", "", "stream name to resolve (overrides STREAM_NAME)")
	winsize := flag.Float64("w", 0, "analysis window in seconds (overrides WIN_SIZE)")
	flag.Parse()

	log.Println("starting neuroloop calibration check")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *stream != "" {
		cfg.StreamName = *stream
	}
	if *winsize > 0 {
		cfg.WinSize = *winsize
	}

	if err := app.RunCalibrate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
