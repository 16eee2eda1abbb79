package encoder

import (
	"NetFlowGen/internal/config"
	"NetFlowGen/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopEncoder struct{}

func (nopEncoder) Name() string { return "nop" }
func (nopEncoder) Encode(*model.Chunk, *model.FieldSchema, *model.NormalizationState) (*model.EncodedChunk, error) {
	return &model.EncodedChunk{}, nil
}
func (nopEncoder) Finalize(*model.FieldSchema, *model.NormalizationState) *model.EncodingMeta {
	return &model.EncodingMeta{Encoder: "nop"}
}

func TestCreateRegistered(t *testing.T) {
	Register("nop", func(cfg *config.Config) (model.Encoder, error) {
		return nopEncoder{}, nil
	})
	defer delete(registry, "nop")

	enc, err := Create("nop", config.Default())
	require.NoError(t, err)
	require.Equal(t, "nop", enc.Name())
}

func TestCreateUnknown(t *testing.T) {
	_, err := Create("onehot", config.Default())
	require.ErrorIs(t, err, model.ErrUnknownEncoder)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup", func(cfg *config.Config) (model.Encoder, error) {
		return nopEncoder{}, nil
	})
	defer delete(registry, "dup")

	require.Panics(t, func() {
		Register("dup", nil)
	})
}
