package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NormalizationConfig selects the normalization policy for continuous
// fields. "two-pass" scans the whole input for exact bounds before
// encoding; "streaming" updates bounds chunk by chunk in a single pass,
// trading exactness in early chunks for one read of the source.
type NormalizationConfig struct {
	Policy string `yaml:"policy"`
	Scale  string `yaml:"scale"`
}

// EmbeddingConfig configures the hashed-embedding encoder.
type EmbeddingConfig struct {
	Dim int `yaml:"dim"`
}

// ClickHouseConfig holds the connection settings for the ClickHouse sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SinkConfig selects where encoded chunks are persisted.
type SinkConfig struct {
	Type        string           `yaml:"type"`        // "file" or "clickhouse"
	Compression string           `yaml:"compression"` // "none", "s2" or "lz4"
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
}

// PreprocessConfig holds the settings of one preprocessing run.
type PreprocessConfig struct {
	Encoder       string              `yaml:"encoder"`
	ChunkSize     int                 `yaml:"chunk_size"`
	MaxRows       int64               `yaml:"max_rows"`
	Normalization NormalizationConfig `yaml:"normalization"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Sink          SinkConfig          `yaml:"sink"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Policy and scale values accepted by NormalizationConfig.
const (
	PolicyTwoPass   = "two-pass"
	PolicyStreaming = "streaming"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Preprocess: PreprocessConfig{
			Encoder:   "numeric",
			ChunkSize: 500000,
			Normalization: NormalizationConfig{
				Policy: PolicyTwoPass,
				Scale:  "minmax01",
			},
			Embedding: EmbeddingConfig{Dim: 8},
			Sink: SinkConfig{
				Type:        "file",
				Compression: "s2",
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration from a YAML file on top of the defaults.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	p := c.Preprocess
	if p.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be >= 1, got %d", p.ChunkSize)
	}
	if p.MaxRows < 0 {
		return fmt.Errorf("max_rows must be >= 0, got %d", p.MaxRows)
	}
	switch p.Normalization.Policy {
	case PolicyTwoPass, PolicyStreaming:
	default:
		return fmt.Errorf("unknown normalization policy '%s'", p.Normalization.Policy)
	}
	switch p.Sink.Type {
	case "file", "clickhouse":
	default:
		return fmt.Errorf("unknown sink type '%s'", p.Sink.Type)
	}
	if p.Encoder == "embedding" && p.Embedding.Dim < 1 {
		return fmt.Errorf("embedding dim must be >= 1, got %d", p.Embedding.Dim)
	}
	return nil
}
