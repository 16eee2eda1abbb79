package model

import (
	"errors"
	"fmt"
)

// Sentinel errors of the preprocessing core. Callers match them with
// errors.Is; the CLI maps them to exit codes.
var (
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrDatasetFormat      = errors.New("malformed dataset")
	ErrUnknownFormat      = errors.New("unknown dataset format")
	ErrUnknownEncoder     = errors.New("unknown encoder")
	ErrOutputExists       = errors.New("output already exists")
	ErrEncoding           = errors.New("encoding failed")
	ErrIncompleteArtifact = errors.New("incomplete artifact")
)

// FormatError reports a structural problem at a specific row of the
// input file.
type FormatError struct {
	Path   string
	Row    int64
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed dataset '%s' at row %d: %s", e.Path, e.Row, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrDatasetFormat
}

// PipelineError wraps a failure with the stage and chunk index where it
// occurred.
type PipelineError struct {
	Stage string
	Chunk int
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("pipeline failed in stage %s at chunk %d: %v", e.Stage, e.Chunk, e.Err)
	}
	return fmt.Sprintf("pipeline failed in stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
