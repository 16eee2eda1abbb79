package schema

import (
	"NetFlowGen/internal/model"
)

func init() {
	Register("cidds", ciddsSchema)
}

// ciddsSchema describes the CIDDS flow format. Field order matches the
// records produced by pkg/cidds.
//
// Vocabulary policy: the protocol vocabulary is static; CIDDS traffic
// outside it (e.g. GRE, IGMP) degrades to the reserved unknown slot and
// is surfaced in the run summary. Duration, packet and byte bounds are
// inferred from the data; addresses and ports have fixed ranges.
func ciddsSchema() *model.FieldSchema {
	tcpFlags := []string{"isURG", "isACK", "isPSH", "isRES", "isSYN", "isFIN"}

	return &model.FieldSchema{
		Format: "cidds",
		Fields: []model.Field{
			{Name: "date_first_seen", Kind: model.KindTimestamp},
			{Name: "duration", Kind: model.KindContinuous, InferBounds: true, Bits: 16, Scale: model.ScaleMinMax01},
			{Name: "proto", Kind: model.KindCategorical, Vocab: []string{"TCP", "UDP", "ICMP"}},
			{Name: "src_ip_addr", Kind: model.KindContinuous, Min: 0, Max: 4294967295, Bits: 32, Scale: model.ScaleMinMax01},
			{Name: "src_pt", Kind: model.KindContinuous, Min: 0, Max: 65535, Bits: 16, Scale: model.ScaleMinMax01},
			{Name: "dst_ip_addr", Kind: model.KindContinuous, Min: 0, Max: 4294967295, Bits: 32, Scale: model.ScaleMinMax01},
			{Name: "dst_pt", Kind: model.KindContinuous, Min: 0, Max: 65535, Bits: 16, Scale: model.ScaleMinMax01},
			{Name: "packets", Kind: model.KindContinuous, InferBounds: true, Bits: 32, Scale: model.ScaleLog1p},
			{Name: "bytes", Kind: model.KindContinuous, InferBounds: true, Bits: 32, Scale: model.ScaleLog1p},
			{Name: "flags", Kind: model.KindFlags, FlagNames: tcpFlags},
		},
	}
}
