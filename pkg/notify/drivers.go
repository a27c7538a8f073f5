package notify

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/pkg/kafka"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	wmsql "github.com/ThreeDotsLabs/watermill-sql/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	stan "github.com/nats-io/stan.go"
)

// DriverFactory opens a Watermill publisher. The optional close function
// releases resources the publisher does not own, such as a database handle.
type DriverFactory func(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFactory{
		"gochannel": openGoChannel,
		"http":      openHTTP,
		"kafka":     openKafka,
		"nats":      openNATS,
		"amqp":      openAMQP,
		"sql":       openSQL,
	}
)

// RegisterDriver adds or replaces a named driver.
func RegisterDriver(name string, factory DriverFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || factory == nil {
		return
	}
	driversMu.Lock()
	drivers[name] = factory
	driversMu.Unlock()
}

func lookupDriver(name string) (DriverFactory, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	factory, ok := drivers[name]
	return factory, ok
}

func openGoChannel(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.GoChannel.OutputChannelBuffer,
		Persistent:          cfg.GoChannel.Persistent,
	}, logger), nil, nil
}

func openHTTP(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	if _, err := httpTargetURL(cfg.HTTP, "probe"); err != nil {
		return nil, nil, err
	}
	pub, err := wmhttp.NewPublisher(wmhttp.PublisherConfig{
		MarshalMessageFunc: func(topic string, msg *message.Message) (*http.Request, error) {
			url, err := httpTargetURL(cfg.HTTP, topic)
			if err != nil {
				return nil, err
			}
			return wmhttp.DefaultMarshalMessageFunc(url, msg)
		},
	}, logger)
	return pub, nil, err
}

func openKafka(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil, errors.New("kafka: no brokers configured")
	}
	var pub message.Publisher
	err := withRetry(3, time.Second, func() error {
		var err error
		pub, err = wmkafka.NewPublisher(cfg.Kafka.Brokers, wmkafka.DefaultMarshaler{}, nil, logger)
		return err
	})
	return pub, nil, err
}

func openNATS(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	if cfg.NATS.ClusterID == "" || cfg.NATS.ClientID == "" {
		return nil, nil, errors.New("nats: cluster_id and client_id are required")
	}
	natsCfg := wmnats.StreamingPublisherConfig{
		ClusterID: cfg.NATS.ClusterID,
		ClientID:  cfg.NATS.ClientID,
		Marshaler: wmnats.GobMarshaler{},
	}
	if cfg.NATS.URL != "" {
		natsCfg.StanOptions = []stan.Option{stan.NatsURL(cfg.NATS.URL)}
	}
	pub, err := wmnats.NewStreamingPublisher(natsCfg, logger)
	return pub, nil, err
}

func openAMQP(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	if cfg.AMQP.URL == "" {
		return nil, nil, errors.New("amqp: url is required")
	}
	amqpCfg, err := amqpConfigFromMode(cfg.AMQP.URL, cfg.AMQP.Mode)
	if err != nil {
		return nil, nil, err
	}
	pub, err := wmamqp.NewPublisher(amqpCfg, logger)
	return pub, nil, err
}

func openSQL(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
	if cfg.SQL.Driver == "" || cfg.SQL.DSN == "" {
		return nil, nil, errors.New("sql: driver and dsn are required")
	}
	schema, err := sqlSchemaAdapter(cfg.SQL.Dialect)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(cfg.SQL.Driver, cfg.SQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	pub, err := wmsql.NewPublisher(db, wmsql.PublisherConfig{
		SchemaAdapter:        schema,
		AutoInitializeSchema: cfg.SQL.AutoInitializeSchema,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return pub, db.Close, nil
}

func withRetry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}

func amqpConfigFromMode(url, mode string) (wmamqp.Config, error) {
	switch strings.ToLower(mode) {
	case "", "durable_queue":
		return wmamqp.NewDurableQueueConfig(url), nil
	case "nondurable_queue":
		return wmamqp.NewNonDurableQueueConfig(url), nil
	case "durable_pubsub":
		return wmamqp.NewDurablePubSubConfig(url, nil), nil
	case "nondurable_pubsub":
		return wmamqp.NewNonDurablePubSubConfig(url, nil), nil
	}
	return wmamqp.Config{}, fmt.Errorf("amqp: unknown mode %q", mode)
}

func sqlSchemaAdapter(dialect string) (wmsql.SchemaAdapter, error) {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql":
		return wmsql.DefaultPostgreSQLSchema{}, nil
	case "mysql":
		return wmsql.DefaultMySQLSchema{}, nil
	}
	return nil, fmt.Errorf("sql: unknown dialect %q", dialect)
}

// httpTargetURL resolves where an event for topic is posted.
func httpTargetURL(cfg HTTPConfig, topic string) (string, error) {
	switch strings.ToLower(cfg.Mode) {
	case "topic_url":
		if topic == "" {
			return "", errors.New("http: topic_url mode needs a topic")
		}
		return topic, nil
	case "base_url", "":
		base := strings.TrimRight(cfg.BaseURL, "/")
		if base == "" {
			return "", errors.New("http: base_url is empty")
		}
		if topic == "" {
			return base, nil
		}
		return base + "/" + strings.TrimLeft(topic, "/"), nil
	}
	return "", fmt.Errorf("http: unknown mode %q", cfg.Mode)
}
