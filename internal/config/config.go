package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreInflux   = "influx"
	StoreMemory   = "memory"

	QueueNone  = "none"
	QueueKafka = "kafka"
	QueueMQTT  = "mqtt"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
	Queue    QueueConfig    `yaml:"queue"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

type QueueConfig struct {
	Type string `yaml:"type"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

type WorkerConfig struct {
	Count     int `yaml:"count"`
	BatchSize int `yaml:"batch_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads the optional YAML file at path, then the optional .env file,
// then applies environment overrides. Missing files are not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.Mongo.Collection, "MONGO_COLLECTION")
	setString(&c.Postgres.ConnString, "POSTGRES_URL")
	setString(&c.Postgres.Table, "POSTGRES_TABLE")
	setString(&c.Influx.URL, "INFLUX_URL")
	setString(&c.Influx.Token, "INFLUX_TOKEN")
	setString(&c.Influx.Org, "INFLUX_ORG")
	setString(&c.Influx.Bucket, "INFLUX_BUCKET")
	setString(&c.Queue.Type, "MESSAGE_QUEUE_TYPE")
	setString(&c.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Kafka.GroupID, "KAFKA_GROUP_ID")
	setString(&c.MQTT.Broker, "MQTT_BROKER")
	setString(&c.MQTT.Topic, "MQTT_TOPIC")
	setString(&c.MQTT.ClientID, "MQTT_CLIENT_ID")
	setInt(&c.Worker.Count, "WORKER_COUNT")
	setInt(&c.Worker.BatchSize, "WORKER_BATCH_SIZE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMongo
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "powrmet"
	}
	if c.Influx.URL == "" {
		c.Influx.URL = "http://localhost:8086"
	}
	if c.Queue.Type == "" {
		c.Queue.Type = QueueNone
	}
	if c.Kafka.Brokers == "" {
		c.Kafka.Brokers = "localhost:9092"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "lora-samples"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "powrmet-ingest"
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "lora/+/uplink"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "powrmet"
	}
	if c.Worker.Count == 0 {
		c.Worker.Count = 4
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.Postgres.ConnString == "" {
			return fmt.Errorf("postgres.conn_string is required for store driver %q", c.Store.Driver)
		}
	case StoreInflux:
		if c.Influx.Token == "" || c.Influx.Org == "" || c.Influx.Bucket == "" {
			return fmt.Errorf("influx.token, influx.org and influx.bucket are required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Queue.Type {
	case QueueNone, QueueKafka, QueueMQTT:
	default:
		return fmt.Errorf("unknown message queue type %q", c.Queue.Type)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if c.Worker.Count < 1 || c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker.count and worker.batch_size must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
