package numeric

import (
	"NetFlowGen/internal/encoder"
	"NetFlowGen/internal/model"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() *model.FieldSchema {
	return &model.FieldSchema{
		Format: "test",
		Fields: []model.Field{
			{Name: "proto", Kind: model.KindCategorical, Vocab: []string{"TCP", "UDP", "ICMP"}},
			{Name: "bytes", Kind: model.KindContinuous, InferBounds: true, Scale: model.ScaleMinMax01},
		},
	}
}

func rec(proto string, bytes float64) model.FlowRecord {
	return model.FlowRecord{{Str: proto}, {Num: bytes}}
}

func observedState(schema *model.FieldSchema, chunks ...*model.Chunk) *model.NormalizationState {
	state := model.NewNormalizationState(schema)
	for _, c := range chunks {
		state.Observe(c, schema)
	}
	return state
}

func TestEncodeKnownValues(t *testing.T) {
	schema := testSchema()
	chunk := &model.Chunk{Records: []model.FlowRecord{
		rec("TCP", 100),
		rec("UDP", 50),
		rec("ICMP", 9999),
	}}
	state := observedState(schema, chunk)

	out, err := New(model.ScaleMinMax01).Encode(chunk, schema, state)
	require.NoError(t, err)
	require.Equal(t, 2, out.Width)
	require.Len(t, out.Rows, 3)

	require.Equal(t, 0.0, out.Rows[0][0])
	require.InDelta(t, 50.0/9949.0, out.Rows[0][1], 1e-12)
	require.Equal(t, []float64{1, 0}, out.Rows[1])
	require.Equal(t, []float64{2, 1}, out.Rows[2])
	require.Empty(t, out.Unknown)
}

func TestEncodeUnknownCategory(t *testing.T) {
	schema := testSchema()
	chunk := &model.Chunk{Records: []model.FlowRecord{rec("GRE", 100)}}
	state := observedState(schema, &model.Chunk{Records: []model.FlowRecord{
		rec("TCP", 50),
		rec("UDP", 9999),
	}})

	out, err := New(model.ScaleMinMax01).Encode(chunk, schema, state)
	require.NoError(t, err)

	// The static vocabulary reserves index len(vocab) for anything
	// outside it, and the substitution is counted.
	require.Equal(t, 3.0, out.Rows[0][0])
	require.EqualValues(t, 1, out.Unknown["proto"])
}

func TestEncodeIdempotent(t *testing.T) {
	schema := testSchema()
	chunk := &model.Chunk{Records: []model.FlowRecord{
		rec("TCP", 100),
		rec("ICMP", 9999),
	}}
	state := observedState(schema, chunk)
	enc := New(model.ScaleMinMax01)

	a, err := enc.Encode(chunk, schema, state)
	require.NoError(t, err)
	b, err := enc.Encode(chunk, schema, state)
	require.NoError(t, err)
	require.Equal(t, a.Rows, b.Rows)
}

func TestEncodeEmptyValue(t *testing.T) {
	schema := testSchema()
	chunk := &model.Chunk{Records: []model.FlowRecord{
		{{Empty: true}, {Empty: true}},
	}}
	state := observedState(schema, &model.Chunk{Records: []model.FlowRecord{
		rec("TCP", 50),
		rec("UDP", 9999),
	}})

	out, err := New(model.ScaleMinMax01).Encode(chunk, schema, state)
	require.NoError(t, err)

	// Empty categorical values take the unknown slot, empty continuous
	// values the lower bound.
	require.Equal(t, []float64{3, 0}, out.Rows[0])
	require.EqualValues(t, 1, out.Unknown["proto"])
}

func TestLog1pFieldKeepsPolicy(t *testing.T) {
	schema := &model.FieldSchema{
		Format: "test",
		Fields: []model.Field{
			{Name: "bytes", Kind: model.KindContinuous, InferBounds: true, Scale: model.ScaleLog1p},
		},
	}
	chunk := &model.Chunk{Records: []model.FlowRecord{
		{{Num: 50}}, {{Num: 100}}, {{Num: 9999}},
	}}
	state := observedState(schema, chunk)

	// Even with a min-max policy configured, schema-level log1p wins.
	out, err := New(model.ScaleMinMax11).Encode(chunk, schema, state)
	require.NoError(t, err)
	require.InDelta(t, math.Log1p(50)/math.Log1p(9949), out.Rows[1][0], 1e-12)
}

func TestFinalizeMetadata(t *testing.T) {
	schema := testSchema()
	chunk := &model.Chunk{Records: []model.FlowRecord{
		rec("TCP", 50),
		rec("ICMP", 9999),
	}}
	state := observedState(schema, chunk)

	meta := New(model.ScaleMinMax01).Finalize(schema, state)
	require.Equal(t, "numeric", meta.Encoder)
	require.Equal(t, []string{"proto", "bytes"}, meta.FeatureNames)
	require.Equal(t, []string{"TCP", "UDP", "ICMP"}, meta.Vocabs["proto"])

	scale := meta.Scales["bytes"]
	require.Equal(t, 50.0, scale.Min)
	require.Equal(t, 9999.0, scale.Max)
	require.Equal(t, model.ScaleMinMax01, scale.Policy)

	// The persisted scales invert the encoding.
	out, err := New(model.ScaleMinMax01).Encode(chunk, schema, state)
	require.NoError(t, err)
	v := encoder.Denormalize(out.Rows[0][1], scale.Min, scale.Max, scale.Policy)
	require.InDelta(t, 50.0, v, 1e-9)
}
