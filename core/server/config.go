package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/richd0tcom/powrmet/internal/broker"
	"github.com/richd0tcom/powrmet/internal/db"
	"github.com/richd0tcom/powrmet/internal/domain"
	"github.com/richd0tcom/powrmet/internal/metrics"
)

type ServerConfig struct {
	MessageQueue broker.MessageQueue
	QueueSource  string
	DataStore    domain.SampleStore
	Consumer     domain.SampleConsumer
	WorkerCount  int
	BatchSize    int
	Port         string
	Clock        func() time.Time
}

type ConfigOption func(*ServerConfig) error

// close releases whatever the options opened so far.
func (config *ServerConfig) close() error {
	var errs []error
	if config.MessageQueue != nil {
		errs = append(errs, config.MessageQueue.Close())
	}
	if config.DataStore != nil {
		errs = append(errs, config.DataStore.Close())
	}
	return errors.Join(errs...)
}

func WithKafka(brokers, topic, groupID string) ConfigOption {
	return func(config *ServerConfig) error {
		mq, err := broker.NewKafkaQueue(brokers, topic, groupID)
		if err != nil {
			return err
		}
		config.MessageQueue = mq
		config.QueueSource = metrics.SourceKafka
		return nil
	}
}

func WithMQTT(opts broker.MQTTOptions) ConfigOption {
	return func(config *ServerConfig) error {
		mq, err := broker.NewMQTTQueue(opts)
		if err != nil {
			return err
		}
		config.MessageQueue = mq
		config.QueueSource = metrics.SourceMQTT
		return nil
	}
}

// WithMessageQueue plugs in an already built queue.
func WithMessageQueue(mq broker.MessageQueue, source string) ConfigOption {
	return func(config *ServerConfig) error {
		config.MessageQueue = mq
		config.QueueSource = source
		return nil
	}
}

func WithMongoDB(client *mongo.Client, database, collection string) ConfigOption {
	return func(config *ServerConfig) error {
		store, err := db.NewMongoSampleStore(client, database, collection)
		if err != nil {
			return err
		}
		config.DataStore = store
		return nil
	}
}

func WithPostgres(conn *sql.DB, table string) ConfigOption {
	return func(config *ServerConfig) error {
		store := db.NewPostgresSampleStore(conn, table)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
		config.DataStore = store
		return nil
	}
}

func WithInfluxDB(client influxdb2.Client, org, bucket, measurement string) ConfigOption {
	return func(config *ServerConfig) error {
		config.DataStore = db.NewInfluxSampleStore(client, org, bucket, measurement)
		return nil
	}
}

func WithStore(store domain.SampleStore) ConfigOption {
	return func(config *ServerConfig) error {
		config.DataStore = store
		return nil
	}
}

func WithWorkerConfig(workerCount, batchSize int) ConfigOption {
	return func(config *ServerConfig) error {
		config.WorkerCount = workerCount
		config.BatchSize = batchSize
		return nil
	}
}

func WithPort(port string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Port = port
		return nil
	}
}

// WithClock overrides the clock used for server timestamps and windows.
func WithClock(now func() time.Time) ConfigOption {
	return func(config *ServerConfig) error {
		config.Clock = now
		return nil
	}
}
