package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Timescale TimescaleConfig `mapstructure:"timescale"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
}

// MQTTConfig holds MQTT connection configuration
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// TimescaleConfig holds Timescale specific configuration
type TimescaleConfig struct {
	TableName string `mapstructure:"table_name"`
}

// EvaluatorConfig controls the periodic plant evaluation.
type EvaluatorConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
	Concurrency int           `mapstructure:"concurrency"`
}

// RelayConfig points at the hosted push-notification relay.
type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LedgerConfig locates the SQLite file holding sent-notification records.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	LiveInterval   time.Duration `mapstructure:"live_interval"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// KafkaConfig enables status event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps every config key to its environment variable.
var envBindings = map[string]string{
	"mqtt.broker":    "MQTT_BROKER",
	"mqtt.port":      "MQTT_PORT",
	"mqtt.client_id": "MQTT_CLIENT_ID",
	"mqtt.topic":     "MQTT_TOPIC",
	"mqtt.username":  "MQTT_USERNAME",
	"mqtt.password":  "MQTT_PASSWORD",

	"database.host":      "DATABASE_HOST",
	"database.port":      "DATABASE_PORT",
	"database.user":      "DATABASE_USER",
	"database.password":  "DATABASE_PASSWORD",
	"database.dbname":    "DATABASE_DBNAME",
	"database.sslmode":   "DATABASE_SSLMODE",
	"database.max_conns": "DATABASE_MAX_CONNS",

	"timescale.table_name": "TIMESCALE_TABLE_NAME",

	"evaluator.interval":    "EVALUATOR_INTERVAL",
	"evaluator.cooldown":    "EVALUATOR_COOLDOWN",
	"evaluator.concurrency": "EVALUATOR_CONCURRENCY",

	"relay.url":     "RELAY_URL",
	"relay.api_key": "RELAY_API_KEY",
	"relay.timeout": "RELAY_TIMEOUT",

	"ledger.path": "LEDGER_PATH",

	"http.port":            "HTTP_PORT",
	"http.live_interval":   "HTTP_LIVE_INTERVAL",
	"http.allowed_origins": "HTTP_ALLOWED_ORIGINS",

	"kafka.brokers": "KAFKA_BROKERS",
	"kafka.topic":   "KAFKA_TOPIC",

	"log.level":  "LOG_LEVEL",
	"log.format": "LOG_FORMAT",
}

// LoadConfig loads configuration from file and/or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Defaults have the lowest precedence
	d := GetDefaultConfig()
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.port", d.MQTT.Port)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)

	v.SetDefault("timescale.table_name", d.Timescale.TableName)

	v.SetDefault("evaluator.interval", d.Evaluator.Interval)
	v.SetDefault("evaluator.cooldown", d.Evaluator.Cooldown)
	v.SetDefault("evaluator.concurrency", d.Evaluator.Concurrency)

	v.SetDefault("relay.url", d.Relay.URL)
	v.SetDefault("relay.api_key", d.Relay.APIKey)
	v.SetDefault("relay.timeout", d.Relay.Timeout)

	v.SetDefault("ledger.path", d.Ledger.Path)

	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.live_interval", d.HTTP.LiveInterval)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// Config file has medium precedence
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Environment variables have the highest precedence.
	// Example: mqtt.broker -> MQTT_BROKER
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	// Keep backward compatibility with MQTT_BROKER_URL
	_ = v.BindEnv("mqtt.broker", "MQTT_BROKER", "MQTT_BROKER_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Info("No config file found, using environment variables and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.HTTP.AllowedOrigins = splitList(cfg.HTTP.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost",
			Port:     1883,
			ClientID: "plant-mood",
			Topic:    "plants/+/sensors",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			DBName:   "plant_mood",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Timescale: TimescaleConfig{
			TableName: "sensor_logs",
		},
		Evaluator: EvaluatorConfig{
			Interval:    30 * time.Minute,
			Cooldown:    30 * time.Minute,
			Concurrency: 4,
		},
		Relay: RelayConfig{
			URL:     "http://localhost:54321/functions/v1/send-notification",
			Timeout: 10 * time.Second,
		},
		Ledger: LedgerConfig{
			Path: "./data/ledger.db",
		},
		HTTP: HTTPConfig{
			Port:           8080,
			LiveInterval:   5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Kafka: KafkaConfig{
			Topic: "plant-status",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic cannot be empty")
	}
	if c.Timescale.TableName == "" {
		return fmt.Errorf("timescale.table_name cannot be empty")
	}
	if c.Evaluator.Interval <= 0 {
		return fmt.Errorf("evaluator.interval must be > 0")
	}
	if c.Evaluator.Cooldown <= 0 {
		return fmt.Errorf("evaluator.cooldown must be > 0")
	}
	if c.Evaluator.Concurrency <= 0 {
		return fmt.Errorf("evaluator.concurrency must be > 0")
	}
	if c.Relay.URL == "" {
		return fmt.Errorf("relay.url cannot be empty")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path cannot be empty")
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be > 0")
	}
	if c.HTTP.LiveInterval <= 0 {
		return fmt.Errorf("http.live_interval must be > 0")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	slog.Info("Connecting to database",
		"host", c.Database.Host,
		"port", c.Database.Port,
		"user", c.Database.User,
		"dbname", c.Database.DBName,
		"sslmode", c.Database.SSLMode,
	)
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
		c.Database.MaxConns,
	)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *Config) GetMQTTBrokerURL() string {
	brokerURL := c.MQTT.Broker

	// If the URL already has a protocol, use it as is
	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://"} {
		if strings.HasPrefix(brokerURL, scheme) {
			// If there's no port in the URL, add the default port
			if !strings.Contains(brokerURL[len(scheme):], ":") {
				brokerURL = fmt.Sprintf("%s:%d", brokerURL, c.MQTT.Port)
			}
			return brokerURL
		}
	}

	// Handle http:// and https:// protocols by converting to mqtt protocols
	if host, ok := strings.CutPrefix(brokerURL, "http://"); ok {
		if !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, c.MQTT.Port)
		}
		return "tcp://" + host
	}
	if host, ok := strings.CutPrefix(brokerURL, "https://"); ok {
		if !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, c.MQTT.Port)
		}
		return "ssl://" + host
	}

	slog.Warn("No protocol specified in broker URL, defaulting to tcp://", "broker", brokerURL)
	return fmt.Sprintf("tcp://%s:%d", brokerURL, c.MQTT.Port)
}

// splitList expands comma separated entries, which is how list values arrive
// from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
