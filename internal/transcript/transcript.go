// Package transcript holds the timed speech segments produced by language
// detection backends.
package transcript

import (
	"fmt"
	"strings"

	"fwea/internal/interval"
	"fwea/internal/services"
)

// Segment is one timed stretch of recognised speech.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Span returns the segment bounds as a half-open interval.
func (s Segment) Span() interval.Span {
	return interval.Span{Start: s.Start, End: s.End}
}

// Result is the detector output for a whole file.
type Result struct {
	Segments         []Segment `json:"segments"`
	PrimaryLanguages []string  `json:"primary_languages"`
	// Fallback is set when the result was synthesised because detection failed.
	Fallback bool `json:"fallback,omitempty"`
}

// Validate splits segments into accepted ones and a list of rejection reasons.
// Segments with malformed bounds never reach the scanner.
func Validate(segments []Segment, duration float64) ([]Segment, []string) {
	accepted := make([]Segment, 0, len(segments))
	var rejected []string
	for i, seg := range segments {
		if err := seg.Span().Validate(); err != nil {
			rejected = append(rejected, fmt.Sprintf("segment %d: %v", i, err))
			continue
		}
		if duration > 0 && seg.Start >= duration {
			rejected = append(rejected, fmt.Sprintf("segment %d: starts at %.3f beyond duration %.3f", i, seg.Start, duration))
			continue
		}
		if duration > 0 && seg.End > duration {
			seg.End = duration
		}
		seg.Text = strings.TrimSpace(seg.Text)
		accepted = append(accepted, seg)
	}
	return accepted, rejected
}

// Fallback builds the single default-language segment used when detection is
// unavailable. A non-positive duration yields an empty segment list.
func Fallback(duration float64, language string) Result {
	res := Result{PrimaryLanguages: []string{language}, Fallback: true}
	if duration > 0 {
		res.Segments = []Segment{{Start: 0, End: duration, Language: language}}
	}
	return res
}

// Languages returns the distinct languages referenced by the result, primary
// languages first.
func (r Result) Languages() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(lang string) {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			return
		}
		if _, ok := seen[lang]; ok {
			return
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	for _, lang := range r.PrimaryLanguages {
		add(lang)
	}
	for _, seg := range r.Segments {
		add(seg.Language)
	}
	return out
}

// ErrEmpty is returned by detectors when a backend produced nothing usable.
var ErrEmpty = services.Wrap(services.ErrDetectionUnavailable, "transcript", "", "detector returned no segments", nil)
