package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ponytojas/plant-mood/config"
	"github.com/ponytojas/plant-mood/internal/metrics"
	"github.com/ponytojas/plant-mood/internal/models"
)

const storeTimeout = 5 * time.Second

// ReadingSink stores sensor readings.
type ReadingSink interface {
	InsertSensorData(ctx context.Context, data *models.SensorReading) error
}

// Client handles MQTT connection and message processing
type Client struct {
	client  mqtt.Client
	sink    ReadingSink
	config  *config.Config
	metrics *metrics.Metrics
	lg      *slog.Logger
}

// NewClient creates a new MQTT client
func NewClient(cfg *config.Config, sink ReadingSink, m *metrics.Metrics, lg *slog.Logger) *Client {
	opts := mqtt.NewClientOptions()
	brokerURL := cfg.GetMQTTBrokerURL()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.MQTT.ClientID)

	// Configure TLS if using SSL or HTTPS
	if strings.HasPrefix(brokerURL, "ssl://") || strings.HasPrefix(brokerURL, "wss://") {
		lg.Info("Configuring TLS for secure MQTT connection", "broker", brokerURL)
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	mqtt.ERROR = slog.NewLogLogger(lg.Handler(), slog.LevelError)
	mqtt.CRITICAL = slog.NewLogLogger(lg.Handler(), slog.LevelError)
	mqtt.WARN = slog.NewLogLogger(lg.Handler(), slog.LevelWarn)

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		lg.Warn("MQTT connection lost", "error", err)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		lg.Info("Attempting to reconnect to MQTT broker")
	})

	return &Client{
		client:  mqtt.NewClient(opts),
		sink:    sink,
		config:  cfg,
		metrics: m,
		lg:      lg,
	}
}

// Connect connects to the MQTT broker
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.lg.Info("Connected to MQTT broker", "broker", c.config.GetMQTTBrokerURL())
	return nil
}

// Subscribe subscribes to the configured topic
func (c *Client) Subscribe() error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		c.lg.Debug("Received message", "topic", msg.Topic(), "payload", string(msg.Payload()))
		c.processMessage(msg.Payload())
	}

	token := c.client.Subscribe(c.config.MQTT.Topic, 0, handler)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.config.MQTT.Topic, token.Error())
	}
	c.lg.Info("Subscribed to topic", "topic", c.config.MQTT.Topic)
	return nil
}

// Disconnect disconnects from the MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.lg.Info("Disconnected from MQTT broker")
}

// processMessage parses an MQTT message and stores it in the sensor log
func (c *Client) processMessage(payload []byte) {
	reading, err := ParseReading(payload, time.Now())
	if err != nil {
		c.metrics.ReadingRejected()
		c.lg.Warn("Dropping sensor message", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.sink.InsertSensorData(ctx, reading); err != nil {
		c.metrics.ReadingRejected()
		c.lg.Error("Error inserting sensor data", "sensor_id", reading.SensorID, "error", err)
		return
	}
	c.metrics.ReadingIngested()

	c.lg.Info("Stored sensor reading",
		"sensor_id", reading.SensorID,
		"time", reading.Timestamp,
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"light", reading.Light,
	)
}

// ParseReading decodes a sensor payload. The sensor id may be sent as
// sensor_id or device_id; a missing timestamp falls back to now. All three
// metrics are required: a partial reading is rejected rather than stored with
// zero defaults.
func ParseReading(payload []byte, now time.Time) (*models.SensorReading, error) {
	var rawData map[string]any
	if err := json.Unmarshal(payload, &rawData); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	sensorID, _ := rawData["sensor_id"].(string)
	if sensorID == "" {
		sensorID, _ = rawData["device_id"].(string)
	}
	if sensorID == "" {
		return nil, errors.New("sensor_id is missing or not a string")
	}

	timestamp := now
	if tsStr, ok := rawData["timestamp"].(string); ok && tsStr != "" {
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", tsStr, err)
		}
		timestamp = ts
	}

	r := &models.SensorReading{SensorID: sensorID, Timestamp: timestamp}
	fields := []struct {
		key string
		dst *float64
	}{
		{"temperature", &r.Temperature},
		{"humidity", &r.Humidity},
		{"light", &r.Light},
	}
	for _, f := range fields {
		v, ok := getFloat64Value(rawData, f.key)
		if !ok {
			return nil, fmt.Errorf("%s is missing, not numeric or not finite", f.key)
		}
		*f.dst = v
	}
	return r, nil
}

// getFloat64Value extracts a finite float64 value from the map. NaN and
// infinities would slip through every range check, so they count as missing.
func getFloat64Value(data map[string]any, key string) (float64, bool) {
	var f float64
	switch v := data[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
