package main

import (
	"NetFlowGen/internal/model"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, exitCode(nil))
	require.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", model.ErrDatasetNotFound)))
	require.Equal(t, 2, exitCode(&model.PipelineError{Stage: "init", Chunk: -1, Err: model.ErrOutputExists}))
	require.Equal(t, 2, exitCode(model.ErrUnknownFormat))
	require.Equal(t, 2, exitCode(model.ErrUnknownEncoder))
	require.Equal(t, 2, exitCode(&usageError{errors.New("chunk_size must be >= 1")}))
	require.Equal(t, 1, exitCode(errors.New("disk full")))
	require.Equal(t, 1, exitCode(&model.PipelineError{Stage: "streaming", Chunk: 3, Err: errors.New("write failed")}))
}

func TestLoadConfigDefault(t *testing.T) {
	flagConfig = ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "numeric", cfg.Preprocess.Encoder)
}

func TestLoadConfigMissingFileIsUsageError(t *testing.T) {
	flagConfig = "/nonexistent/config.yaml"
	defer func() { flagConfig = "" }()

	_, err := loadConfig()
	var uerr *usageError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, 2, exitCode(err))
}
