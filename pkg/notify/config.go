package notify

// Config holds configuration for removal event publishing.
type Config struct {
	// Enabled turns publishing on; the pass itself never depends on it.
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`

	Driver     string           `yaml:"driver"`
	Drivers    []string         `yaml:"drivers"`
	GoChannel  GoChannelConfig  `yaml:"gochannel"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	NATS       NATSConfig       `yaml:"nats"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	SQL        SQLConfig        `yaml:"sql"`
	HTTP       HTTPConfig       `yaml:"http"`
	RiverQueue RiverQueueConfig `yaml:"riverqueue"`
}

// GoChannelConfig holds configuration for the in-process GoChannel pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer int64 `yaml:"output_buffer"`
	Persistent          bool  `yaml:"persistent"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type NATSConfig struct {
	ClusterID string `yaml:"cluster_id"`
	ClientID  string `yaml:"client_id"`
	URL       string `yaml:"url"`
}

type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

type SQLConfig struct {
	Driver               string `yaml:"driver"`
	DSN                  string `yaml:"dsn"`
	Dialect              string `yaml:"dialect"`
	AutoInitializeSchema bool   `yaml:"auto_initialize_schema"`
}

// HTTPConfig posts events to BaseURL joined with the topic, or to the
// topic itself when Mode is topic_url.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
}

// RiverQueueConfig enqueues one River job per event.
type RiverQueueConfig struct {
	DSN         string   `yaml:"dsn"`
	Queue       string   `yaml:"queue"`
	Kind        string   `yaml:"kind"`
	MaxAttempts int      `yaml:"max_attempts"`
	Priority    int      `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Topic == "" {
		cfg.Topic = "curator.removals"
	}
	if cfg.Driver == "" && len(cfg.Drivers) == 0 {
		cfg.Driver = "gochannel"
	}
	if cfg.GoChannel.OutputChannelBuffer == 0 {
		cfg.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.HTTP.Mode == "" {
		cfg.HTTP.Mode = "base_url"
	}
	if cfg.RiverQueue.Queue == "" {
		cfg.RiverQueue.Queue = "default"
	}
	if cfg.RiverQueue.Kind == "" {
		cfg.RiverQueue.Kind = "curator.removal"
	}
	if cfg.RiverQueue.MaxAttempts == 0 {
		cfg.RiverQueue.MaxAttempts = 25
	}
	if cfg.RiverQueue.Priority == 0 {
		cfg.RiverQueue.Priority = 1
	}
}
