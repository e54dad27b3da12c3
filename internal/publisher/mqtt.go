// Package publisher mirrors chart state to an MQTT broker.
package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sc "signal_chart"
	"signal_chart/internal/config"
	"signal_chart/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// publishClient is the part of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher is a chart listener that mirrors each state change to MQTT.
type Publisher struct {
	client      publishClient
	topicPrefix string
	qos         byte
	log         *logger.Logger
}

// ChartMessage is the retained payload on <prefix>/chart.
type ChartMessage struct {
	EntityID  int        `json:"entity_id"`
	Visible   bool       `json:"visible"`
	Fills     [4]float64 `json:"fills"`
	Seq       uint64     `json:"seq"`
	UpdatedAt time.Time  `json:"updated_at"`
	Version   uint64     `json:"version"`
}

// SegmentMessage is the retained payload on <prefix>/segment/<i>.
type SegmentMessage struct {
	Signal sc.Signal `json:"signal"`
	Fill   float64   `json:"fill"`
}

// New connects to the broker described by cfg.
func New(cfg config.MQTTConfig, log *logger.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(connectTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix, cfg.QoS, log), nil
}

func newPublisher(client publishClient, prefix string, qos byte, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = "signal_chart"
	}
	return &Publisher{client: client, topicPrefix: prefix, qos: qos, log: log}
}

// ChartUpdated publishes state. Errors are logged; the chart never waits on the broker.
func (p *Publisher) ChartUpdated(state sc.ChartState) {
	if err := p.Publish(state); err != nil {
		p.log.Errorw("mqtt_publish_failed", "err", err, "mid", state.EntityID, "seq", state.Seq)
	}
}

// Publish sends the whole chart and one message per segment.
func (p *Publisher) Publish(state sc.ChartState) error {
	if err := p.send(p.topicPrefix+"/chart", ChartMessage{
		EntityID:  state.EntityID,
		Visible:   state.Visible,
		Fills:     state.Fills,
		Seq:       state.Seq,
		UpdatedAt: state.UpdatedAt,
		Version:   state.Version,
	}); err != nil {
		return err
	}
	for i, s := range sc.PresentationOrder {
		topic := fmt.Sprintf("%s/segment/%d", p.topicPrefix, i)
		if err := p.send(topic, SegmentMessage{Signal: s, Fill: state.Fills[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) send(topic string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", topic, err)
	}
	token := p.client.Publish(topic, p.qos, true, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
