package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/neurotap/neuroloop/internal/config"
	"github.com/neurotap/neuroloop/internal/telemetry"
)

// RunConsole subscribes to the feedback topic and prints one line per
// control-loop cycle until interrupted.
func RunConsole() error {
	cfg := config.Get()
	broker := cfg.MQTTBroker
	if broker == "" {
		broker = "tcp://localhost:1883"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("neuroloop-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", broker)

	token := client.Subscribe(cfg.TopicFeedback, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s telemetry.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[FEED]  t=%7.1fs  metric=%8.4f  range=[%8.4f, %8.4f]  speed=%3d\n",
			s.Elapsed, s.Metric, s.Low, s.High, s.Feedback,
		)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicFeedback)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
