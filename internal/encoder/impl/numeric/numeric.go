// Package numeric encodes flow records as integer category codes and
// normalized floating-point values.
package numeric

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/encoder"
	"NetFlowGen/internal/model"
	"fmt"
)

func init() {
	encoder.Register("numeric", func(cfg *config.Config) (model.Encoder, error) {
		return New(model.ScalePolicy(cfg.Preprocess.Normalization.Scale)), nil
	})
}

// Encoder implements the model.Encoder interface. The configured scale
// policy applies to min-max fields; fields the schema marks as log1p
// keep their heavy-tail scaling.
type Encoder struct {
	scale model.ScalePolicy
}

// New creates a numeric encoder with the given min-max scale policy.
func New(scale model.ScalePolicy) model.Encoder {
	if scale != model.ScaleMinMax11 {
		scale = model.ScaleMinMax01
	}
	return &Encoder{scale: scale}
}

// Name returns the registered strategy name.
func (e *Encoder) Name() string {
	return "numeric"
}

// Encode maps categorical values to vocabulary indices (unknown values
// to the reserved index len(vocab)) and continuous values to normalized
// floats using the bounds recorded in the normalization state.
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
				vocab := state.Vocabs[f.Name]
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
				row = append(row, float64(idx))

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

// Finalize derives the persisted encoding metadata, including the scale
// factors a consumer needs to invert the normalization.
func (e *Encoder) Finalize(schema *model.FieldSchema, state *model.NormalizationState) *model.EncodingMeta {
	var names []string
	for fi := range schema.Fields {
		f := &schema.Fields[fi]
		switch f.Kind {
		case model.KindTimestamp:
			names = append(names, encoder.TimestampFeatureNames...)
		case model.KindContinuous, model.KindCategorical:
			names = append(names, f.Name)
		case model.KindFlags:
			names = append(names, f.FlagNames...)
		}
	}

	scales := encoder.Scales(schema, state)
	for name, sm := range scales {
		if i := schema.FieldIndex(name); i >= 0 {
			sm.Policy = e.fieldScale(&schema.Fields[i])
			scales[name] = sm
		}
	}

	return &model.EncodingMeta{
		Encoder:      e.Name(),
		FeatureNames: names,
		Scales:       scales,
		Vocabs:       encoder.Vocabs(schema, state),
	}
}

// fieldScale keeps log1p fields heavy-tail scaled and applies the
// configured min-max policy everywhere else.
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
		case model.KindContinuous, model.KindCategorical:
			width++
		case model.KindFlags:
			width += len(f.FlagNames)
		}
	}
	return width
}
