// Package telemetry publishes per-cycle feedback samples so other tools
// (the console, recorders) can watch a session live.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TopicFeedback is the default MQTT topic for feedback samples.
const TopicFeedback = "neuroloop/feedback"

// Sample is one control-loop cycle: the raw metric, the calibrated
// operating range and the normalized feedback value pushed to the
// actuator.
type Sample struct {
	Metric   float64 `json:"metric"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Feedback int     `json:"feedback"`
	Elapsed  float64 `json:"elapsed"` // seconds into the active phase
}

// Publisher receives one sample per control-loop cycle. Publishing is
// best effort and must never stall the loop.
type Publisher interface {
	Publish(Sample)
	Close()
}

// Nop discards all samples. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(Sample) {}
func (Nop) Close()         {}

type mqttPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to broker and returns a publisher for topic.
func NewMQTT(broker, clientID, topic string) (Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)
	return &mqttPublisher{client: client, topic: topic}, nil
}

func (p *mqttPublisher) Publish(s Sample) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("telemetry: marshal error: %v", err)
		return
	}
	// Fire and forget: a slow broker must not block the control loop.
	p.client.Publish(p.topic, 0, true, payload)
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}
