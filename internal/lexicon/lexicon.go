package lexicon

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"fwea/internal/language"
)

// BaseKey selects the language-independent list in Options.CustomWords.
const BaseKey = "base"

// Options customise a Lexicon.
type Options struct {
	// CustomWords adds words per language (any code or name the language
	// package understands). The BaseKey entry extends the base list.
	CustomWords       map[string][]string
	DisablePatterns   bool
	DisableHeuristics bool
}

type term struct {
	word   string   // display form, folded
	tokens []string // folded tokens for whole-word matching
}

// Lexicon is an immutable profanity lookup table.
type Lexicon struct {
	byLang     map[string][]term
	base       []term
	heuristics []term
	patterns   []*regexp.Regexp
}

// Default returns the built-in lexicon.
func Default() *Lexicon {
	return New(Options{})
}

// New builds a lexicon from the built-in lists plus opts.
func New(opts Options) *Lexicon {
	lx := &Lexicon{byLang: make(map[string][]term, len(builtinWords))}
	for lang, words := range builtinWords {
		lx.byLang[lang] = buildTerms(words)
	}
	lx.base = buildTerms(baseWords)
	for key, words := range opts.CustomWords {
		if strings.EqualFold(strings.TrimSpace(key), BaseKey) {
			lx.base = mergeTerms(lx.base, buildTerms(words))
			continue
		}
		lang := language.ToISO2(key)
		if lang == "" {
			continue
		}
		lx.byLang[lang] = mergeTerms(lx.byLang[lang], buildTerms(words))
	}
	if !opts.DisableHeuristics {
		lx.heuristics = buildTerms(heuristicWords)
	}
	if !opts.DisablePatterns {
		for _, src := range patternSources {
			lx.patterns = append(lx.patterns, regexp.MustCompile(`(?i)\b`+src+patternSuffix+`\b`))
		}
	}
	return lx
}

// Languages returns the ISO 639-1 codes with a word list, sorted.
func (lx *Lexicon) Languages() []string {
	out := make([]string, 0, len(lx.byLang))
	for lang := range lx.byLang {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Match returns the distinct words from lang's list that occur in text.
func (lx *Lexicon) Match(text, lang string) []string {
	code := language.ToISO2(lang)
	terms := lx.byLang[code]
	if len(terms) == 0 {
		return nil
	}
	return matchTerms(newDocument(text), terms, continuousScripts[code])
}

// MatchBase returns the distinct base-list words that occur in text.
func (lx *Lexicon) MatchBase(text string) []string {
	return matchTerms(newDocument(text), lx.base, false)
}

// MatchHeuristics returns the negative-sentiment words that occur in text.
func (lx *Lexicon) MatchHeuristics(text string) []string {
	return matchTerms(newDocument(text), lx.heuristics, false)
}

// PatternMatch records one obfuscation pattern hit.
type PatternMatch struct {
	Pattern int
	Word    string
}

// MatchPatterns returns one entry per pattern that matched, with the matched
// text stripped of separators so "s*h*i*t" and "shit" compare equal.
func (lx *Lexicon) MatchPatterns(text string) []PatternMatch {
	if len(lx.patterns) == 0 {
		return nil
	}
	folded := fold(text)
	var out []PatternMatch
	for i, re := range lx.patterns {
		m := re.FindString(folded)
		if m == "" {
			continue
		}
		out = append(out, PatternMatch{Pattern: i, Word: strings.Map(dropSeparators, m)})
	}
	return out
}

type document struct {
	folded string
	tokens []string
	set    map[string]struct{}
}

func newDocument(text string) document {
	folded := fold(text)
	tokens := tokenize(folded)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return document{folded: folded, tokens: tokens, set: set}
}

func matchTerms(doc document, terms []term, substring bool) []string {
	var out []string
	for _, t := range terms {
		if t.matches(doc, substring) {
			out = append(out, t.word)
		}
	}
	return out
}

func (t term) matches(doc document, substring bool) bool {
	if substring {
		return strings.Contains(doc.folded, t.word)
	}
	switch len(t.tokens) {
	case 0:
		return false
	case 1:
		_, ok := doc.set[t.tokens[0]]
		return ok
	}
	for i := 0; i+len(t.tokens) <= len(doc.tokens); i++ {
		match := true
		for j, tok := range t.tokens {
			if doc.tokens[i+j] != tok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func buildTerms(words []string) []term {
	terms := make([]term, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		folded := strings.TrimSpace(fold(w))
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		terms = append(terms, term{word: folded, tokens: tokenize(folded)})
	}
	return terms
}

func mergeTerms(existing, extra []term) []term {
	seen := make(map[string]struct{}, len(existing))
	out := append([]term(nil), existing...)
	for _, t := range existing {
		seen[t.word] = struct{}{}
	}
	for _, t := range extra {
		if _, ok := seen[t.word]; ok {
			continue
		}
		seen[t.word] = struct{}{}
		out = append(out, t)
	}
	return out
}

// fold lower-cases with Unicode case folding after NFC composition so
// precomposed and decomposed spellings compare equal.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r))
	})
}

func dropSeparators(r rune) rune {
	switch r {
	case '*', '-', '_':
		return -1
	}
	return r
}
