package model

import (
	"math"
)

// Bounds is the running value range of one continuous field.
type Bounds struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count uint64  `json:"count"`
}

// Observe folds a value into the bounds, ignoring NaN and infinities.
func (b *Bounds) Observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if b.Count == 0 {
		b.Min, b.Max = v, v
	} else {
		if v < b.Min {
			b.Min = v
		}
		if v > b.Max {
			b.Max = v
		}
	}
	b.Count++
}

// Vocabulary maps categorical values to stable indices in insertion
// order. Values not present encode to the reserved unknown index, which
// is always len(Values).
type Vocabulary struct {
	Values []string       `json:"values"`
	index  map[string]int `json:"-"`
	frozen bool
}

func NewVocabulary(values []string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(values))}
	for _, s := range values {
		v.Add(s)
	}
	return v
}

// Add registers a value if the vocabulary is still open. Returns its index.
func (v *Vocabulary) Add(s string) int {
	if i, ok := v.index[s]; ok {
		return i
	}
	if v.frozen {
		return v.UnknownIndex()
	}
	if v.index == nil {
		v.index = make(map[string]int)
	}
	i := len(v.Values)
	v.index[s] = i
	v.Values = append(v.Values, s)
	return i
}

// Lookup returns the index of a value and whether it is known.
func (v *Vocabulary) Lookup(s string) (int, bool) {
	i, ok := v.index[s]
	return i, ok
}

// UnknownIndex is the reserved code for out-of-vocabulary values.
func (v *Vocabulary) UnknownIndex() int {
	return len(v.Values)
}

func (v *Vocabulary) Len() int {
	return len(v.Values)
}

// Freeze closes the vocabulary; further Add calls degrade to the
// unknown index instead of growing it.
func (v *Vocabulary) Freeze() {
	v.frozen = true
}

// Rebuild restores the lookup index after deserialization.
func (v *Vocabulary) Rebuild() {
	v.index = make(map[string]int, len(v.Values))
	for i, s := range v.Values {
		v.index[s] = i
	}
	v.frozen = true
}

// NormalizationState aggregates the running statistics needed to encode
// continuous and categorical fields consistently across chunks. It has
// a single writer, the pipeline; encoders only read from it.
type NormalizationState struct {
	Bounds map[string]*Bounds     `json:"bounds"`
	Vocabs map[string]*Vocabulary `json:"vocabs"`
}

// NewNormalizationState seeds the state from the schema: fixed-range
// continuous fields get their configured bounds, static vocabularies
// are installed as-is, and inferred fields start empty.
func NewNormalizationState(schema *FieldSchema) *NormalizationState {
	st := &NormalizationState{
		Bounds: make(map[string]*Bounds),
		Vocabs: make(map[string]*Vocabulary),
	}
	for _, f := range schema.Fields {
		switch f.Kind {
		case KindContinuous:
			b := &Bounds{}
			if !f.InferBounds {
				b.Min, b.Max, b.Count = f.Min, f.Max, 1
			}
			st.Bounds[f.Name] = b
		case KindCategorical:
			v := NewVocabulary(f.Vocab)
			if f.Vocab != nil {
				v.Freeze()
			}
			st.Vocabs[f.Name] = v
		}
	}
	return st
}

// Observe updates inferred bounds and open vocabularies from one chunk.
// Fixed-range fields and static vocabularies are left untouched.
func (st *NormalizationState) Observe(chunk *Chunk, schema *FieldSchema) {
	for i, f := range schema.Fields {
		switch f.Kind {
		case KindContinuous:
			if !f.InferBounds {
				continue
			}
			b := st.Bounds[f.Name]
			for _, rec := range chunk.Records {
				if i < len(rec) && !rec[i].Empty {
					b.Observe(rec[i].Num)
				}
			}
		case KindCategorical:
			v := st.Vocabs[f.Name]
			for _, rec := range chunk.Records {
				if i < len(rec) && !rec[i].Empty {
					v.Add(rec[i].Str)
				}
			}
		}
	}
}

// FreezeVocabs closes every open vocabulary. Used by the streaming
// policy after first-chunk inference so that the encoded width stays
// fixed for the rest of the run.
func (st *NormalizationState) FreezeVocabs() {
	for _, v := range st.Vocabs {
		v.Freeze()
	}
}
