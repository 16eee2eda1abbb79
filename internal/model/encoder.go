package model

// Encoder converts chunks of flow records into their numeric
// representation. Implementations are interchangeable strategies
// selected at pipeline construction. Encoding must be a pure function
// of (record, schema, state): no hidden cross-row coupling, no mutation
// of the normalization state.
type Encoder interface {
	// Name returns the registered strategy name.
	Name() string

	// Encode transforms one chunk. Row i of the result corresponds to
	// record i of the chunk.
	Encode(chunk *Chunk, schema *FieldSchema, state *NormalizationState) (*EncodedChunk, error)

	// Finalize derives the metadata needed to reproduce or invert the
	// encoding: feature names, scale factors and vocabularies.
	Finalize(schema *FieldSchema, state *NormalizationState) *EncodingMeta
}

// ScaleMeta is the persisted scale information of one continuous field.
type ScaleMeta struct {
	Min    float64     `json:"min"`
	Max    float64     `json:"max"`
	Policy ScalePolicy `json:"policy"`
	Bits   int         `json:"bits,omitempty"`
}

// EncodingMeta is the self-describing part of a processed dataset: a
// downstream reader reconstructs the encoding from it without
// re-deriving anything from raw data.
type EncodingMeta struct {
	Encoder      string               `json:"encoder"`
	FeatureNames []string             `json:"feature_names"`
	Scales       map[string]ScaleMeta `json:"scales"`
	Vocabs       map[string][]string  `json:"vocabs"`
	EmbeddingDim int                  `json:"embedding_dim,omitempty"`
}
