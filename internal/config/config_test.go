package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "numeric", cfg.Preprocess.Encoder)
	require.Equal(t, PolicyTwoPass, cfg.Preprocess.Normalization.Policy)
	require.Equal(t, "file", cfg.Preprocess.Sink.Type)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
preprocess:
  encoder: binary
  chunk_size: 1000
  normalization:
    policy: streaming
  sink:
    compression: lz4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "binary", cfg.Preprocess.Encoder)
	require.Equal(t, 1000, cfg.Preprocess.ChunkSize)
	require.Equal(t, PolicyStreaming, cfg.Preprocess.Normalization.Policy)
	require.Equal(t, "lz4", cfg.Preprocess.Sink.Compression)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Untouched settings keep their defaults.
	require.Equal(t, "minmax01", cfg.Preprocess.Normalization.Scale)
	require.Equal(t, "file", cfg.Preprocess.Sink.Type)
	require.Equal(t, 8, cfg.Preprocess.Embedding.Dim)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Preprocess.ChunkSize = 0 }},
		{"negative max rows", func(c *Config) { c.Preprocess.MaxRows = -1 }},
		{"bad policy", func(c *Config) { c.Preprocess.Normalization.Policy = "exact" }},
		{"bad sink", func(c *Config) { c.Preprocess.Sink.Type = "kafka" }},
		{"bad embedding dim", func(c *Config) {
			c.Preprocess.Encoder = "embedding"
			c.Preprocess.Embedding.Dim = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
