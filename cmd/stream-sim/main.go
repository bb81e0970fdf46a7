package main

import (
	"flag"
	"log"

	"github.com/neurotap/neuroloop/internal/app"
	"github.com/neurotap/neuroloop/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	stream := flag.String("s", "", "name to serve the stream under (overrides STREAM_NAME)")
	addr := flag.String("addr", ":0", "TCP listen address")
	flag.Parse()

	log.Println("starting neuroloop stream simulator (synthetic EEG → TCP)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *stream != "" {
		config.Get().StreamName = *stream
	}

	if err := app.RunStreamSim(*addr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
