package model

import (
	"context"
	"time"
)

// SinkHeader describes a run before any chunk is written.
type SinkHeader struct {
	Format       string       `json:"format"`
	Encoder      string       `json:"encoder"`
	FeatureNames []string     `json:"feature_names"`
	Schema       *FieldSchema `json:"schema"`
}

// RunMeta is persisted alongside the encoded chunks when a run
// completes. It embeds everything a consumer needs to interpret the
// artifact.
type RunMeta struct {
	Encoding  *EncodingMeta       `json:"encoding"`
	State     *NormalizationState `json:"normalization"`
	Rows      uint64              `json:"rows"`
	Chunks    int                 `json:"chunks"`
	Unknown   map[string]uint64   `json:"unknown_substitutions,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Sink persists encoded chunks incrementally. Begin is called once
// before the first Append; Close finalizes the artifact and writes the
// completion marker. If the run fails, Abort releases the handle and
// leaves the artifact in a detectable incomplete state.
type Sink interface {
	Begin(hdr *SinkHeader) error
	Append(ctx context.Context, chunk *EncodedChunk) error
	Close(meta *RunMeta) error
	Abort()
}
