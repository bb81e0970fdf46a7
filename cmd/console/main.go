package main

import (
	"flag"
	"log"

	"github.com/neurotap/neuroloop/internal/app"
	"github.com/neurotap/neuroloop/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	flag.Parse()

	log.Println("starting neuroloop console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
