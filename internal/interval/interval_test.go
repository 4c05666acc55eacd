package interval_test

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"fwea/internal/interval"
	"fwea/internal/services"
)

func TestMergeExamples(t *testing.T) {
	cases := []struct {
		name string
		in   []interval.Span
		want []interval.Span
	}{
		{"empty", nil, []interval.Span{}},
		{"single", []interval.Span{{1, 3}}, []interval.Span{{1, 3}}},
		{"overlap", []interval.Span{{1, 3}, {2, 5}, {10, 12}}, []interval.Span{{1, 5}, {10, 12}}},
		{"touching", []interval.Span{{1, 2}, {2, 3}}, []interval.Span{{1, 3}}},
		{"unsorted", []interval.Span{{10, 12}, {2, 5}, {1, 3}}, []interval.Span{{1, 5}, {10, 12}}},
		{"contained", []interval.Span{{1, 10}, {2, 3}}, []interval.Span{{1, 10}}},
		{"zero length dropped", []interval.Span{{4, 4}, {1, 2}}, []interval.Span{{1, 2}}},
		{"inverted dropped", []interval.Span{{5, 4}}, []interval.Span{}},
	}
	for _, tc := range cases {
		got := interval.Merge(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: Merge(%v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	in := []interval.Span{{5, 6}, {1, 2}}
	_ = interval.Merge(in)
	if in[0].Start != 5 || in[1].Start != 1 {
		t.Fatalf("input mutated: %v", in)
	}
}

// Properties checked on a 0.5s grid so coverage comparisons are exact.
func TestMergeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(12)
		spans := make([]interval.Span, 0, n)
		for i := 0; i < n; i++ {
			start := float64(rng.Intn(80)) / 2
			end := start + float64(rng.Intn(10))/2
			spans = append(spans, interval.Span{Start: start, End: end})
		}
		merged := interval.Merge(spans)
		for i := 1; i < len(merged); i++ {
			if merged[i].Start <= merged[i-1].End {
				t.Fatalf("intervals overlap or touch: %v", merged)
			}
		}
		for _, m := range merged {
			if m.Start >= m.End {
				t.Fatalf("empty merged interval: %v", merged)
			}
		}
		for tick := 0.0; tick < 50; tick += 0.25 {
			if covers(spans, tick) != covers(merged, tick) {
				t.Fatalf("coverage differs at %.2f: in=%v merged=%v", tick, spans, merged)
			}
		}
	}
}

func TestSpanValidate(t *testing.T) {
	for _, s := range []interval.Span{{-1, 2}, {3, 3}, {4, 2}} {
		if err := s.Validate(); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", s, err)
		}
	}
	if err := (interval.Span{Start: 0, End: 1}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClampAndCovered(t *testing.T) {
	got := interval.Clamp([]interval.Span{{-2, 1}, {8, 12}, {15, 20}}, 10)
	want := []interval.Span{{0, 1}, {8, 10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Clamp = %v, want %v", got, want)
	}
	if c := interval.Covered([]interval.Span{{0, 2}, {1, 3}, {5, 6}}); c != 4 {
		t.Fatalf("Covered = %v, want 4", c)
	}
}

func covers(spans []interval.Span, t float64) bool {
	for _, s := range spans {
		if t >= s.Start && t < s.End {
			return true
		}
	}
	return false
}
