package model

import (
	"time"
)

// Kind classifies how a schema field is interpreted by the encoders.
type Kind uint8

const (
	KindCategorical Kind = iota + 1
	KindContinuous
	KindFlags
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindContinuous:
		return "continuous"
	case KindFlags:
		return "flags"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// ScalePolicy selects how a continuous field is normalized by the
// numeric and embedding encoders.
type ScalePolicy string

const (
	ScaleMinMax01 ScalePolicy = "minmax01" // min-max into [0,1]
	ScaleMinMax11 ScalePolicy = "minmax11" // min-max into [-1,1]
	ScaleLog1p    ScalePolicy = "log1p"    // log1p then min-max, for heavy-tailed counts
)

// Field describes a single column of a flow record. Parameters are
// kind-specific: categorical fields carry a vocabulary (nil means the
// vocabulary is inferred from data), continuous fields carry a value
// range, a fixed-point bit width and a scale policy, flag fields carry
// the names of their bits.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Categorical parameters.
	Vocab []string `json:"vocab,omitempty"`

	// Continuous parameters.
	Min         float64     `json:"min,omitempty"`
	Max         float64     `json:"max,omitempty"`
	InferBounds bool        `json:"infer_bounds,omitempty"`
	Bits        int         `json:"bits,omitempty"`
	Scale       ScalePolicy `json:"scale,omitempty"`

	// Flags parameters.
	FlagNames []string `json:"flag_names,omitempty"`
}

// FieldSchema is the ordered column description applied identically to
// every chunk of a preprocessing run. It is fixed once resolved.
type FieldSchema struct {
	Format string  `json:"format"`
	Fields []Field `json:"fields"`
}

// FieldIndex returns the position of the named field, or -1.
func (s *FieldSchema) FieldIndex(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Value is one parsed cell of a flow record. Exactly one of the typed
// members is meaningful, selected by the kind of the schema field at
// the same position. Empty marks a missing cell.
type Value struct {
	Empty bool
	Str   string
	Num   float64
	Time  time.Time
	Bits  uint8
}

// FlowRecord is a single network flow, with values aligned to the
// schema's field order. It is immutable once read.
type FlowRecord []Value

// Chunk is a bounded batch of flow records, the unit of streaming.
type Chunk struct {
	Index   int
	Records []FlowRecord
}

// EncodedChunk is the numeric representation of a chunk. Row i
// corresponds to record i of the source chunk. Unknown counts the
// out-of-vocabulary substitutions performed per categorical field.
type EncodedChunk struct {
	Index   int
	Width   int
	Rows    [][]float64
	Unknown map[string]uint64
}

// RunSummary reports what a completed preprocessing run did.
type RunSummary struct {
	Rows    uint64
	Chunks  int
	Unknown map[string]uint64
	Elapsed time.Duration
}
