package binary

import (
	"NetFlowGen/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() *model.FieldSchema {
	return &model.FieldSchema{
		Format: "test",
		Fields: []model.Field{
			{Name: "proto", Kind: model.KindCategorical, Vocab: []string{"TCP", "UDP"}},
			{Name: "val", Kind: model.KindContinuous, Min: 0, Max: 255, Bits: 8, Scale: model.ScaleMinMax01},
			{Name: "flags", Kind: model.KindFlags, FlagNames: []string{"isSYN", "isFIN"}},
		},
	}
}

func TestEncodeBitVectors(t *testing.T) {
	schema := testSchema()
	state := model.NewNormalizationState(schema)
	chunk := &model.Chunk{Records: []model.FlowRecord{
		{{Str: "TCP"}, {Num: 255}, {Bits: 0b10}},
		{{Str: "UDP"}, {Num: 0}, {Bits: 0b01}},
	}}

	out, err := New().Encode(chunk, schema, state)
	require.NoError(t, err)

	// 3 one-hot slots + 8 quantization bits + 2 flag bits.
	require.Equal(t, 13, out.Width)
	require.Equal(t, []float64{1, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}, out.Rows[0])
	require.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, out.Rows[1])
	require.Empty(t, out.Unknown)
}

func TestEncodeUnknownCategory(t *testing.T) {
	schema := testSchema()
	state := model.NewNormalizationState(schema)
	chunk := &model.Chunk{Records: []model.FlowRecord{
		{{Str: "GRE"}, {Num: 128}, {}},
	}}

	out, err := New().Encode(chunk, schema, state)
	require.NoError(t, err)

	// Out-of-vocabulary values light the reserved trailing slot.
	require.Equal(t, []float64{0, 0, 1}, out.Rows[0][:3])
	require.EqualValues(t, 1, out.Unknown["proto"])
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	schema := testSchema()
	state := model.NewNormalizationState(schema)
	chunk := &model.Chunk{Records: []model.FlowRecord{
		{{Str: "TCP"}, {Num: 99999}, {}},
		{{Str: "TCP"}, {Num: -5}, {}},
	}}

	out, err := New().Encode(chunk, schema, state)
	require.NoError(t, err)

	ones := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	zeros := make([]float64, 8)
	require.Equal(t, ones, out.Rows[0][3:11])
	require.Equal(t, zeros, out.Rows[1][3:11])
}

func TestFinalizeFeatureNames(t *testing.T) {
	schema := testSchema()
	state := model.NewNormalizationState(schema)

	meta := New().Finalize(schema, state)
	require.Equal(t, "binary", meta.Encoder)

	want := []string{
		"proto_TCP", "proto_UDP", "proto_unknown",
		"val_0", "val_1", "val_2", "val_3", "val_4", "val_5", "val_6", "val_7",
		"isSYN", "isFIN",
	}
	require.Equal(t, want, meta.FeatureNames)
	require.Equal(t, 8, meta.Scales["val"].Bits)
}
