package schema

import (
	"NetFlowGen/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCIDDS(t *testing.T) {
	s, err := Resolve("cidds")
	require.NoError(t, err)
	require.Equal(t, "cidds", s.Format)
	require.Len(t, s.Fields, 10)

	field := func(name string) model.Field {
		i := s.FieldIndex(name)
		require.GreaterOrEqual(t, i, 0, "field %s", name)
		return s.Fields[i]
	}
	require.Equal(t, model.KindTimestamp, field("date_first_seen").Kind)
	require.Equal(t, model.KindCategorical, field("proto").Kind)
	require.Equal(t, []string{"TCP", "UDP", "ICMP"}, field("proto").Vocab)
	require.Equal(t, model.KindFlags, field("flags").Kind)
	require.Len(t, field("flags").FlagNames, 6)

	bytes := field("bytes")
	require.Equal(t, model.KindContinuous, bytes.Kind)
	require.True(t, bytes.InferBounds)
	require.Equal(t, model.ScaleLog1p, bytes.Scale)

	srcIP := field("src_ip_addr")
	require.False(t, srcIP.InferBounds)
	require.EqualValues(t, 4294967295, srcIP.Max)
	require.Equal(t, 32, srcIP.Bits)
}

func TestResolveUnknownFormat(t *testing.T) {
	_, err := Resolve("netflow9")
	require.ErrorIs(t, err, model.ErrUnknownFormat)
}

func TestFormatsListed(t *testing.T) {
	require.Contains(t, Formats(), "cidds")
}
