package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/richd0tcom/powrmet/core/server"
	_ "github.com/richd0tcom/powrmet/docs"
	"github.com/richd0tcom/powrmet/internal/broker"
	"github.com/richd0tcom/powrmet/internal/config"
	"github.com/richd0tcom/powrmet/internal/db"
	"github.com/richd0tcom/powrmet/internal/logging"
)

// @title Power Telemetry API
// @version 1.0
// @description Ingestion and time-window aggregation of LoRa power monitor samples.

// @host localhost:3000
// @BasePath /
func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer logger.Close()

	options, err := serverOptions(cfg)
	if err != nil {
		slog.Error("failed to connect store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(options...)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := srv.Close(); err != nil {
		slog.Warn("close", "error", err)
	}
	slog.Info("server shutdown complete")
}

func serverOptions(cfg *config.Config) ([]server.ConfigOption, error) {
	options := []server.ConfigOption{
		server.WithPort(cfg.Server.Port),
		server.WithWorkerConfig(cfg.Worker.Count, cfg.Worker.BatchSize),
	}

	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := db.NewMongoConnection(cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		options = append(options, server.WithMongoDB(client, cfg.Mongo.Database, cfg.Mongo.Collection))
	case config.StorePostgres:
		conn, err := db.NewPostgresConnection(cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		options = append(options, server.WithPostgres(conn, cfg.Postgres.Table))
	case config.StoreInflux:
		client := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
		options = append(options, server.WithInfluxDB(client, cfg.Influx.Org, cfg.Influx.Bucket, cfg.Influx.Measurement))
	case config.StoreMemory:
		options = append(options, server.WithStore(db.NewMemorySampleStore()))
	}

	switch cfg.Queue.Type {
	case config.QueueKafka:
		options = append(options, server.WithKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID))
	case config.QueueMQTT:
		options = append(options, server.WithMQTT(broker.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}))
	}

	return options, nil
}
