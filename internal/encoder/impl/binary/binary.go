// Package binary encodes flow records as flat bit vectors: one-hot
// categorical fields and fixed-width binary quantization of continuous
// fields.
package binary

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/encoder"
	"NetFlowGen/internal/model"
	"fmt"
)

func init() {
	encoder.Register("binary", func(cfg *config.Config) (model.Encoder, error) {
		return New(), nil
	})
}

// Encoder implements the model.Encoder interface.
type Encoder struct{}

// New creates a binary encoder.
func New() model.Encoder {
	return &Encoder{}
}

// Name returns the registered strategy name.
func (e *Encoder) Name() string {
	return "binary"
}

// Encode expands every record into its bit-vector form. Categorical
// values outside the vocabulary set the reserved unknown slot instead
// of failing; continuous values outside the recorded range are clamped.
func (e *Encoder) Encode(chunk *model.Chunk, schema *model.FieldSchema, state *model.NormalizationState) (*model.EncodedChunk, error) {
	width := e.width(schema, state)
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
				row = encoder.AppendBits(row, encoder.Quantize(val, min, max, f.Bits), f.Bits)

			case model.KindCategorical:
				vocab := state.Vocabs[f.Name]
				slots := make([]float64, vocab.Len()+1)
				idx := vocab.UnknownIndex()
				if !v.Empty {
					if i, ok := vocab.Lookup(v.Str); ok {
						idx = i
					} else {
						out.Unknown[f.Name]++
					}
				} else {
					out.Unknown[f.Name]++
				}
				slots[idx] = 1
				row = append(row, slots...)

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
			for i := 0; i < f.Bits; i++ {
				names = append(names, fmt.Sprintf("%s_%d", f.Name, i))
			}
		case model.KindCategorical:
			for _, val := range state.Vocabs[f.Name].Values {
				names = append(names, fmt.Sprintf("%s_%s", f.Name, val))
			}
			names = append(names, f.Name+"_unknown")
		case model.KindFlags:
			names = append(names, f.FlagNames...)
		}
	}

	return &model.EncodingMeta{
		Encoder:      e.Name(),
		FeatureNames: names,
		Scales:       encoder.Scales(schema, state),
		Vocabs:       encoder.Vocabs(schema, state),
	}
}

func (e *Encoder) width(schema *model.FieldSchema, state *model.NormalizationState) int {
	width := 0
	for fi := range schema.Fields {
		f := &schema.Fields[fi]
		switch f.Kind {
		case model.KindTimestamp:
			width += len(encoder.TimestampFeatureNames)
		case model.KindContinuous:
			width += f.Bits
		case model.KindCategorical:
			width += state.Vocabs[f.Name].Len() + 1
		case model.KindFlags:
			width += len(f.FlagNames)
		}
	}
	return width
}
