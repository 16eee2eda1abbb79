package encoder

import (
	"NetFlowGen/internal/model"
	"math"
)

// Clamp forces a value into [min, max]. NaN collapses to min so that it
// can never propagate into encoder output.
func Clamp(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Normalize scales a continuous value into the unit range dictated by
// the policy, using the recorded bounds. Out-of-range values are
// clamped, never rejected. A degenerate range (min == max) maps to the
// lower boundary constant.
func Normalize(v, min, max float64, policy model.ScalePolicy) float64 {
	v = Clamp(v, min, max)
	if max <= min {
		if policy == model.ScaleMinMax11 {
			return -1
		}
		return 0
	}

	var x float64
	switch policy {
	case model.ScaleLog1p:
		x = math.Log1p(v-min) / math.Log1p(max-min)
	default:
		x = (v - min) / (max - min)
	}

	if policy == model.ScaleMinMax11 {
		return 2*x - 1
	}
	return x
}

// Denormalize inverts Normalize using the persisted scale factors.
func Denormalize(x, min, max float64, policy model.ScalePolicy) float64 {
	if max <= min {
		return min
	}
	if policy == model.ScaleMinMax11 {
		x = (x + 1) / 2
	}
	switch policy {
	case model.ScaleLog1p:
		return min + math.Expm1(x*math.Log1p(max-min))
	default:
		return min + x*(max-min)
	}
}

// Quantize maps a continuous value onto the fixed-point grid
// [0, 2^bits-1] after min-max scaling.
func Quantize(v, min, max float64, bits int) uint64 {
	levels := float64(uint64(1)<<uint(bits) - 1)
	x := v
	if max > min {
		x = (Clamp(v, min, max) - min) / (max - min)
	} else {
		x = 0
	}
	return uint64(math.Round(x * levels))
}

// AppendBits appends the big-endian bit pattern of a quantized level.
func AppendBits(dst []float64, level uint64, bits int) []float64 {
	for i := bits - 1; i >= 0; i-- {
		dst = append(dst, float64((level>>uint(i))&1))
	}
	return dst
}

// TimestampFeatures expands a timestamp into its seven weekday
// indicators followed by the time of day as a fraction of 86400
// seconds. A missing timestamp expands to all zeros.
func TimestampFeatures(dst []float64, v model.Value) []float64 {
	var day [7]float64
	var frac float64
	if !v.Empty {
		// time.Weekday starts at Sunday; the feature order starts at Monday.
		day[(int(v.Time.Weekday())+6)%7] = 1
		h, m, s := v.Time.Clock()
		frac = float64(h*3600+m*60+s) / 86400
	}
	dst = append(dst, day[:]...)
	return append(dst, frac)
}

// TimestampFeatureNames are the column names produced by
// TimestampFeatures.
var TimestampFeatureNames = []string{
	"isMonday", "isTuesday", "isWednesday", "isThursday",
	"isFriday", "isSaturday", "isSunday", "daytime",
}

// FieldBounds returns the effective bounds of a continuous field: the
// schema's fixed range, or the recorded running bounds for inferred
// fields.
func FieldBounds(f *model.Field, state *model.NormalizationState) (float64, float64) {
	if !f.InferBounds {
		return f.Min, f.Max
	}
	if b, ok := state.Bounds[f.Name]; ok && b.Count > 0 {
		return b.Min, b.Max
	}
	return 0, 0
}

// Scales collects the persisted scale metadata of every continuous
// field.
func Scales(schema *model.FieldSchema, state *model.NormalizationState) map[string]model.ScaleMeta {
	scales := make(map[string]model.ScaleMeta)
	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Kind != model.KindContinuous {
			continue
		}
		min, max := FieldBounds(f, state)
		scales[f.Name] = model.ScaleMeta{Min: min, Max: max, Policy: f.Scale, Bits: f.Bits}
	}
	return scales
}

// Vocabs collects the resolved vocabulary of every categorical field.
func Vocabs(schema *model.FieldSchema, state *model.NormalizationState) map[string][]string {
	vocabs := make(map[string][]string)
	for i := range schema.Fields {
		f := &schema.Fields[i]
		if f.Kind != model.KindCategorical {
			continue
		}
		if v, ok := state.Vocabs[f.Name]; ok {
			vocabs[f.Name] = append([]string(nil), v.Values...)
		}
	}
	return vocabs
}
