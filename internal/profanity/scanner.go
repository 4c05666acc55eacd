// Package profanity turns timed transcript segments into redaction spans and
// runs the content-scanning pipeline stage.
package profanity

import (
	"sort"

	"fwea/internal/interval"
	"fwea/internal/job"
	"fwea/internal/language"
	"fwea/internal/lexicon"
	"fwea/internal/transcript"
)

// Confidence contributed by each kind of evidence. The total is clamped to
// [0,1] and is a ranking signal, not a probability.
const (
	weightBase       = 0.3
	weightLanguage   = 0.4
	weightPattern    = 0.3
	weightHeuristics = 0.2
)

// Check is the verdict for one piece of text.
type Check struct {
	Words      []string
	Confidence float64
	Severity   job.Severity
}

// Found reports whether any lexicon or pattern hit was recorded.
func (c Check) Found() bool {
	return len(c.Words) > 0
}

// Scanner matches transcript text against a shared, read-only lexicon.
type Scanner struct {
	lexicon *lexicon.Lexicon
}

// NewScanner builds a scanner over lx (the default lexicon when nil).
func NewScanner(lx *lexicon.Lexicon) *Scanner {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &Scanner{lexicon: lx}
}

// Scan emits exactly one span per segment with at least one hit, covering
// the whole segment. Each segment is checked against every language in
// languages, its own detected language, and the languages implied by the
// scripts its text is written in, so code-switched speech is caught even when
// the detector labels the whole file with one language. Segments with invalid
// bounds are skipped.
func (s *Scanner) Scan(segments []transcript.Segment, languages []string) []job.DetectedSpan {
	requested := language.NormalizeList(languages)
	var spans []job.DetectedSpan
	for _, seg := range segments {
		span := interval.Span{Start: seg.Start, End: seg.End}
		if span.Validate() != nil {
			continue
		}
		segLang := language.ToISO2(seg.Language)
		scripts := language.DetectScripts(seg.Text)
		langs := requested
		if segLang != "" || len(scripts) > 0 {
			extra := append([]string{segLang}, scripts...)
			langs = language.NormalizeList(append(append([]string{}, requested...), extra...))
		}
		check := s.Check(seg.Text, langs)
		if !check.Found() {
			continue
		}
		tag := segLang
		if tag == "" && len(scripts) > 0 {
			tag = scripts[0]
		}
		if tag == "" {
			tag = "unknown"
		}
		spans = append(spans, job.DetectedSpan{
			Span:       span,
			Language:   tag,
			Words:      check.Words,
			Confidence: check.Confidence,
			Severity:   check.Severity,
		})
	}
	return spans
}

// Check scores one piece of text against the base list, the given
// languages' lists, the obfuscation patterns and the heuristic words.
func (s *Scanner) Check(text string, languages []string) Check {
	hits := make(map[string]struct{})
	confidence := 0.0

	if base := s.lexicon.MatchBase(text); len(base) > 0 {
		confidence += weightBase
		for _, w := range base {
			hits[w] = struct{}{}
		}
	}

	langs := append([]string(nil), languages...)
	sort.Strings(langs)
	for _, lang := range langs {
		for _, w := range s.lexicon.Match(text, lang) {
			confidence += weightLanguage
			hits[w] = struct{}{}
		}
	}

	for _, m := range s.lexicon.MatchPatterns(text) {
		confidence += weightPattern
		hits[m.Word] = struct{}{}
	}

	if len(hits) == 0 {
		return Check{Severity: job.SeverityNone}
	}
	if len(s.lexicon.MatchHeuristics(text)) > 0 {
		confidence += weightHeuristics
	}

	words := make([]string, 0, len(hits))
	for w := range hits {
		words = append(words, w)
	}
	sort.Strings(words)
	if confidence > 1 {
		confidence = 1
	}
	return Check{Words: words, Confidence: confidence, Severity: Classify(len(words))}
}

// Classify maps a distinct hit count onto a severity.
func Classify(hits int) job.Severity {
	switch {
	case hits <= 0:
		return job.SeverityNone
	case hits <= 2:
		return job.SeverityMild
	case hits <= 5:
		return job.SeverityModerate
	default:
		return job.SeveritySevere
	}
}

// Summary aggregates spans into a job-level verdict.
type Summary struct {
	Count     int
	Severity  job.Severity
	Breakdown map[string]job.LanguageStat
}

// Summarize computes the overall severity from distinct words across all
// spans, plus a per-language breakdown.
func Summarize(spans []job.DetectedSpan) Summary {
	all := make(map[string]struct{})
	perLang := make(map[string]map[string]struct{})
	counts := make(map[string]int)
	for _, sp := range spans {
		words := perLang[sp.Language]
		if words == nil {
			words = make(map[string]struct{})
			perLang[sp.Language] = words
		}
		for _, w := range sp.Words {
			all[w] = struct{}{}
			words[w] = struct{}{}
		}
		counts[sp.Language]++
	}
	breakdown := make(map[string]job.LanguageStat, len(perLang))
	for lang, words := range perLang {
		breakdown[lang] = job.LanguageStat{Count: counts[lang], Severity: Classify(len(words))}
	}
	return Summary{Count: len(spans), Severity: Classify(len(all)), Breakdown: breakdown}
}
