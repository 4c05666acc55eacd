// Package interval merges and queries half-open time ranges measured in
// seconds. Every function here is pure and safe for concurrent use.
package interval

import (
	"fmt"
	"math"
	"sort"

	"fwea/internal/services"
)

// Span is a half-open range [Start, End) in seconds.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns the span duration in seconds.
func (s Span) Length() float64 {
	return s.End - s.Start
}

// Validate rejects spans that are negative, inverted, empty, or not finite.
func (s Span) Validate() error {
	switch {
	case math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0):
		return services.Wrap(services.ErrValidation, "interval", "validate", fmt.Sprintf("non-finite span [%v, %v)", s.Start, s.End), nil)
	case s.Start < 0:
		return services.Wrap(services.ErrValidation, "interval", "validate", fmt.Sprintf("negative start %.3f", s.Start), nil)
	case s.Start >= s.End:
		return services.Wrap(services.ErrValidation, "interval", "validate", fmt.Sprintf("start %.3f must be before end %.3f", s.Start, s.End), nil)
	}
	return nil
}

// Merge returns the maximal union of the input spans, sorted ascending with no
// two results overlapping or touching. Zero-length and inverted spans are
// dropped. The input slice is not modified.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return []Span{}
	}
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= s.End || math.IsNaN(s.Start) || math.IsNaN(s.End) {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Span, 0, len(sorted))
	for _, s := range sorted {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Clamp trims spans to [0, duration) and drops anything left empty. A
// non-positive duration disables the upper bound.
func Clamp(spans []Span, duration float64) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if duration > 0 && s.End > duration {
			s.End = duration
		}
		if s.Start < s.End {
			out = append(out, s)
		}
	}
	return out
}

// Covered returns the total number of seconds covered by the union of spans.
func Covered(spans []Span) float64 {
	total := 0.0
	for _, s := range Merge(spans) {
		total += s.Length()
	}
	return total
}
