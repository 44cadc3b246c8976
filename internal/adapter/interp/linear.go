// Package interp provides gap filling for sampled series.
package interp

// Linear fills interior nil gaps of values by linear interpolation between the
// nearest present neighbours, treating samples as equally spaced. Leading and
// trailing gaps are left nil. The input slice is not modified.
//
// For a gap between index i0 (value v0) and i1 (value v1):
//
//	v(k) = v0 + (v1 - v0) * (k - i0) / (i1 - i0)
func Linear(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	copy(out, values)

	prev := -1
	for i, v := range values {
		if v == nil {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			v0, v1 := *values[prev], *v
			span := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				f := v0 + (v1-v0)*float64(k-prev)/span
				out[k] = &f
			}
		}
		prev = i
	}

	return out
}

