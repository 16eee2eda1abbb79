// Package embedding encodes categorical fields as dense deterministic
// vectors derived from a hash of the value, so no trained embedding
// table is required. Continuous fields follow the numeric encoder's
// normalization rules.
package embedding

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/encoder"
	"NetFlowGen/internal/model"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

func init() {
	encoder.Register("embedding", func(cfg *config.Config) (model.Encoder, error) {
		dim := cfg.Preprocess.Embedding.Dim
		if dim < 1 {
			return nil, fmt.Errorf("embedding dim must be >= 1, got %d", dim)
		}
		return New(dim, model.ScalePolicy(cfg.Preprocess.Normalization.Scale)), nil
	})
}

// Encoder implements the model.Encoder interface.
type Encoder struct {
	dim   int
	scale model.ScalePolicy
}

// New creates a hashed-embedding encoder producing dim-dimensional
// category vectors.
func New(dim int, scale model.ScalePolicy) model.Encoder {
	if scale != model.ScaleMinMax11 {
		scale = model.ScaleMinMax01
	}
	return &Encoder{dim: dim, scale: scale}
}

// Name returns the registered strategy name.
func (e *Encoder) Name() string {
	return "embedding"
}

// Encode replaces each categorical value with its hashed unit vector.
// Hashing is total over strings, so there is no out-of-vocabulary case:
// unseen values get a vector of their own. Empty values encode to the
// zero vector.
func (e *Encoder) Encode(chunk *model.Chunk, schema *model.FieldSchema, state *model.NormalizationState) (*model.EncodedChunk, error) {
	width := e.width(schema)
	out := &model.EncodedChunk{
		Index:   chunk.Index,
		Width:   width,
		Rows:    make([][]float64, len(chunk.Records)),
		Unknown: make(map[string]uint64),
	}

	for ri, rec := range chunk.Records {
		row := make([]float64, 0, width)
		for fi := range schema.Fields {
			f := &schema.Fields[fi]
			var v model.Value
			if fi < len(rec) {
				v = rec[fi]
			} else {
				v = model.Value{Empty: true}
			}

			switch f.Kind {
			case model.KindTimestamp:
				row = encoder.TimestampFeatures(row, v)

			case model.KindContinuous:
				min, max := encoder.FieldBounds(f, state)
				val := min
				if !v.Empty {
					val = v.Num
				}
				row = append(row, encoder.Normalize(val, min, max, e.fieldScale(f)))

			case model.KindCategorical:
				if v.Empty {
					row = append(row, make([]float64, e.dim)...)
				} else {
					row = append(row, e.vector(f.Name, v.Str)...)
				}

			case model.KindFlags:
				w := len(f.FlagNames)
				for i := 0; i < w; i++ {
					row = append(row, float64((v.Bits>>uint(w-1-i))&1))
				}

			default:
				return nil, fmt.Errorf("%w: field '%s' has unsupported kind %s",
					model.ErrEncoding, f.Name, f.Kind)
			}
		}
		out.Rows[ri] = row
	}

	return out, nil
}

// Finalize derives the persisted encoding metadata.
func (e *Encoder) Finalize(schema *model.FieldSchema, state *model.NormalizationState) *model.EncodingMeta {
	var names []string
	for fi := range schema.Fields {
		f := &schema.Fields[fi]
		switch f.Kind {
		case model.KindTimestamp:
			names = append(names, encoder.TimestampFeatureNames...)
		case model.KindContinuous:
			names = append(names, f.Name)
		case model.KindCategorical:
			for i := 0; i < e.dim; i++ {
				names = append(names, fmt.Sprintf("%s_e%d", f.Name, i))
			}
		case model.KindFlags:
			names = append(names, f.FlagNames...)
		}
	}

	return &model.EncodingMeta{
		Encoder:      e.Name(),
		FeatureNames: names,
		Scales:       encoder.Scales(schema, state),
		Vocabs:       encoder.Vocabs(schema, state),
		EmbeddingDim: e.dim,
	}
}

// vector derives the deterministic unit vector of one categorical
// value. Each component comes from an independent xxHash of the field
// name, the value and the component index.
func (e *Encoder) vector(field, value string) []float64 {
	vec := make([]float64, e.dim)
	var norm float64
	for i := range vec {
		h := xxhash.Sum64String(field + "\x1f" + value + "\x1f" + strconv.Itoa(i))
		// Map the hash onto [-1, 1].
		vec[i] = float64(h)/float64(math.MaxUint64)*2 - 1
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (e *Encoder) fieldScale(f *model.Field) model.ScalePolicy {
	if f.Scale == model.ScaleLog1p {
		return model.ScaleLog1p
	}
	return e.scale
}

func (e *Encoder) width(schema *model.FieldSchema) int {
	width := 0
	for fi := range schema.Fields {
		f := &schema.Fields[fi]
		switch f.Kind {
		case model.KindTimestamp:
			width += len(encoder.TimestampFeatureNames)
		case model.KindContinuous:
			width++
		case model.KindCategorical:
			width += e.dim
		case model.KindFlags:
			width += len(f.FlagNames)
		}
	}
	return width
}
