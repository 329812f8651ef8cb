package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExtractorConfig controls how a single capture becomes a feature vector.
type ExtractorConfig struct {
	Threshold      int    `yaml:"threshold"`
	DecodePolicy   string `yaml:"decode_policy"`
	Throughput     bool   `yaml:"throughput"`
	SequenceLength int    `yaml:"sequence_length"`
}

// BatchConfig controls directory-wide extraction runs.
type BatchConfig struct {
	NumWorkers int      `yaml:"num_workers"`
	Extensions []string `yaml:"extensions"`
}

// CSVConfig holds the settings for the tabular feature file.
type CSVConfig struct {
	Path   string `yaml:"path"`
	Label  string `yaml:"label"`
	Append bool   `yaml:"append"`
}

// GobConfig holds the settings for gob snapshots.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the NATS publishing settings.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// KafkaConfig holds the Kafka producer settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WriterDef defines a single output sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	CSV        CSVConfig        `yaml:"csv"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// APIConfig holds the settings for the HTTP and gRPC servers.
type APIConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	GRPCAddr       string `yaml:"grpc_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Extractor ExtractorConfig `yaml:"extractor"`
	Batch     BatchConfig     `yaml:"batch"`
	Writers   []WriterDef     `yaml:"writers"`
	API       APIConfig       `yaml:"api"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Extractor.Threshold == 0 {
		c.Extractor.Threshold = 30
	}
	if c.Extractor.DecodePolicy == "" {
		c.Extractor.DecodePolicy = "skip"
	}
	if c.Extractor.SequenceLength == 0 {
		c.Extractor.SequenceLength = 40
	}
	if c.Batch.NumWorkers <= 0 {
		c.Batch.NumWorkers = 1
	}
	if len(c.Batch.Extensions) == 0 {
		c.Batch.Extensions = []string{".pcap", ".pcapng", ".cap"}
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.GRPCAddr == "" {
		c.API.GRPCAddr = ":9090"
	}
	if c.API.MaxUploadBytes <= 0 {
		c.API.MaxUploadBytes = 64 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Extractor.Threshold < 0 {
		return fmt.Errorf("extractor.threshold must be positive, got %d", c.Extractor.Threshold)
	}
	if c.Extractor.SequenceLength < 0 {
		return fmt.Errorf("extractor.sequence_length must be positive, got %d", c.Extractor.SequenceLength)
	}
	switch c.Extractor.DecodePolicy {
	case "skip", "abort":
	default:
		return fmt.Errorf("extractor.decode_policy must be 'skip' or 'abort', got '%s'", c.Extractor.DecodePolicy)
	}
	for i, w := range c.Writers {
		if w.Type == "" {
			return fmt.Errorf("writers[%d]: missing type", i)
		}
	}
	return nil
}
