package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Payload formats for MQTT publishing.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// MQTTOptions configure an MQTT sink.
type MQTTOptions struct {
	Broker   string // host:port
	ClientID string
	Topic    string
	QoS      byte
	Format   string
	Source   string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// MQTT publishes decoded payloads to a broker.
type MQTT struct {
	opts   MQTTOptions
	client mqtt.Client
	log    *slog.Logger
	clock  func() time.Time
}

// NewMQTT validates opts and connects to the broker.
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if opts.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("invalid mqtt qos %d", opts.QoS)
	}
	switch opts.Format {
	case "":
		opts.Format = FormatJSON
	case FormatJSON, FormatMsgpack:
	default:
		return nil, fmt.Errorf("unsupported mqtt payload format %q", opts.Format)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s", opts.Broker))
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)
	co.OnConnect = func(mqtt.Client) {
		log.Info("sink: mqtt connected", "broker", opts.Broker, "client_id", opts.ClientID)
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("sink: mqtt connection lost", "broker", opts.Broker, "error", err)
	}

	client := mqtt.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("mqtt connect: timed out after %s", opts.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &MQTT{opts: opts, client: client, log: log, clock: time.Now}, nil
}

func (m *MQTT) OnDecoded(ctx context.Context, text string) error {
	payload, err := encodeRecord(m.opts.Format, Record{
		ID:        uuid.NewString(),
		Text:      text,
		Source:    m.opts.Source,
		DecodedAt: m.clock().UTC(),
	})
	if err != nil {
		return err
	}

	token := m.client.Publish(m.opts.Topic, m.opts.QoS, false, payload)
	timeout := m.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", m.opts.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.opts.Topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

func encodeRecord(format string, r Record) ([]byte, error) {
	switch format {
	case FormatMsgpack:
		return msgpack.Marshal(r)
	case FormatJSON, "":
		return json.Marshal(r)
	default:
		return nil, fmt.Errorf("unsupported mqtt payload format %q", format)
	}
}
