package writer

import (
	"NetFlowGen/internal/compress"
	"NetFlowGen/internal/model"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testHeader() *model.SinkHeader {
	return &model.SinkHeader{
		Format:       "cidds",
		Encoder:      "numeric",
		FeatureNames: []string{"proto", "bytes"},
		Schema: &model.FieldSchema{
			Format: "cidds",
			Fields: []model.Field{
				{Name: "proto", Kind: model.KindCategorical, Vocab: []string{"TCP", "UDP"}},
				{Name: "bytes", Kind: model.KindContinuous, InferBounds: true},
			},
		},
	}
}

func testMeta(rows uint64, chunks int) *model.RunMeta {
	return &model.RunMeta{
		Encoding: &model.EncodingMeta{
			Encoder:      "numeric",
			FeatureNames: []string{"proto", "bytes"},
			Scales:       map[string]model.ScaleMeta{"bytes": {Min: 50, Max: 9999, Policy: model.ScaleMinMax01}},
			Vocabs:       map[string][]string{"proto": {"TCP", "UDP"}},
		},
		State: &model.NormalizationState{
			Bounds: map[string]*model.Bounds{"bytes": {Min: 50, Max: 9999, Count: rows}},
			Vocabs: map[string]*model.Vocabulary{"proto": model.NewVocabulary([]string{"TCP", "UDP"})},
		},
		Rows:      rows,
		Chunks:    chunks,
		Unknown:   map[string]uint64{"proto": 2},
		CreatedAt: time.Now().UTC(),
	}
}

func writeArtifact(t *testing.T, path string, codec compress.Codec, chunks []*model.EncodedChunk, complete bool) {
	t.Helper()
	a, err := Create(path, codec, false)
	require.NoError(t, err)
	require.NoError(t, a.Begin(testHeader()))

	var rows uint64
	for _, c := range chunks {
		require.NoError(t, a.Append(context.Background(), c))
		rows += uint64(len(c.Rows))
	}

	if complete {
		require.NoError(t, a.Close(testMeta(rows, len(chunks))))
	} else {
		a.Abort()
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	for _, name := range []string{"none", "s2", "lz4"} {
		t.Run(name, func(t *testing.T) {
			codec, err := compress.ByName(name)
			require.NoError(t, err)

			chunks := []*model.EncodedChunk{
				{Index: 0, Width: 2, Rows: [][]float64{{0, 0.25}, {1, 0.5}}},
				{Index: 1, Width: 2, Rows: [][]float64{{2, 1}}},
			}
			path := filepath.Join(t.TempDir(), "flows.nfg")
			writeArtifact(t, path, codec, chunks, true)

			d, err := OpenDataset(path)
			require.NoError(t, err)
			defer d.Close()

			require.Equal(t, "cidds", d.Header.Format)
			require.Equal(t, "numeric", d.Header.Encoder)
			require.Equal(t, []string{"proto", "bytes"}, d.Header.FeatureNames)
			require.EqualValues(t, 3, d.Meta.Rows)
			require.Equal(t, 2, d.Meta.Chunks)
			require.EqualValues(t, 2, d.Meta.Unknown["proto"])
			require.Equal(t, 50.0, d.Meta.Encoding.Scales["bytes"].Min)

			// Rebuilt vocabularies are usable for lookups again.
			idx, ok := d.Meta.State.Vocabs["proto"].Lookup("UDP")
			require.True(t, ok)
			require.Equal(t, 1, idx)

			it, err := d.Chunks()
			require.NoError(t, err)
			for i, want := range chunks {
				got, err := it.Next(context.Background())
				require.NoError(t, err)
				require.Equal(t, i, got.Index)
				require.Equal(t, want.Rows, got.Rows)
			}
			_, err = it.Next(context.Background())
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestCreateRefusesExistingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.nfg")
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0644))

	_, err := Create(path, compress.NoopCodec{}, false)
	require.ErrorIs(t, err, model.ErrOutputExists)

	// The refusal must leave the existing file untouched.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("precious"), data)
}

func TestCreateForceReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.nfg")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	a, err := Create(path, compress.NoopCodec{}, true)
	require.NoError(t, err)
	require.NoError(t, a.Begin(testHeader()))
	require.NoError(t, a.Close(testMeta(0, 0)))

	d, err := OpenDataset(path)
	require.NoError(t, err)
	defer d.Close()
	require.EqualValues(t, 0, d.Meta.Rows)
}

func TestAbortedArtifactIsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.nfg")
	chunks := []*model.EncodedChunk{{Index: 0, Width: 1, Rows: [][]float64{{0.5}}}}
	writeArtifact(t, path, compress.NoopCodec{}, chunks, false)

	_, err := OpenDataset(path)
	require.ErrorIs(t, err, model.ErrIncompleteArtifact)
}

func TestTruncatedArtifactIsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.nfg")
	chunks := []*model.EncodedChunk{{Index: 0, Width: 1, Rows: [][]float64{{0.5}}}}
	writeArtifact(t, path, compress.NoopCodec{}, chunks, true)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0644))

	_, err = OpenDataset(path)
	require.ErrorIs(t, err, model.ErrIncompleteArtifact)
}

func TestOpenDatasetMissing(t *testing.T) {
	_, err := OpenDataset(filepath.Join(t.TempDir(), "missing.nfg"))
	require.ErrorIs(t, err, model.ErrDatasetNotFound)
}

func TestOpenDatasetRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.nfg")
	require.NoError(t, os.WriteFile(path, []byte("Date first seen,Duration,Proto\n"), 0644))

	_, err := OpenDataset(path)
	require.Error(t, err)
}
