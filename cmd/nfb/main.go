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
	addr := flag.String("addr", "", "stream address host:port, skips discovery (overrides STREAM_ADDR)")
	winsize := flag.Float64("w", 0, "analysis window in seconds (overrides WIN_SIZE)")
	duration := flag.Float64("d", 0, "session duration in seconds (overrides DURATION)")
	verbose := flag.Bool("verbose", false, "log every control-loop cycle")
	flag.Parse()

	log.Println("starting neuroloop feedback session")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *stream != "" {
		cfg.StreamName = *stream
	}
	if *addr != "" {
		cfg.StreamAddr = *addr
	}
	if *winsize > 0 {
		cfg.WinSize = *winsize
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}

	if err := app.RunNFB(*verbose); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
