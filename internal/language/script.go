package language

import "unicode"

// scriptLanguages maps writing systems that identify a language on their own
// onto ISO 639-1 codes. Latin is absent: it says nothing about the language.
var scriptLanguages = []struct {
	table *unicode.RangeTable
	code  string
}{
	{unicode.Arabic, "ar"},
	{unicode.Han, "zh"},
	{unicode.Hiragana, "ja"},
	{unicode.Katakana, "ja"},
	{unicode.Hangul, "ko"},
	{unicode.Thai, "th"},
	{unicode.Hebrew, "he"},
	{unicode.Cyrillic, "ru"},
	{unicode.Greek, "el"},
	{unicode.Devanagari, "hi"},
	{unicode.Bengali, "bn"},
	{unicode.Tamil, "ta"},
	{unicode.Telugu, "te"},
	{unicode.Kannada, "kn"},
	{unicode.Malayalam, "ml"},
	{unicode.Gujarati, "gu"},
	{unicode.Gurmukhi, "pa"},
}

// DetectScripts returns the languages implied by the non-Latin scripts that
// appear in text, in a fixed order and without duplicates. Text written only
// in Latin script yields nil.
func DetectScripts(text string) []string {
	var found []bool
	for _, r := range text {
		if r < 0x370 || !unicode.IsLetter(r) {
			continue
		}
		if found == nil {
			found = make([]bool, len(scriptLanguages))
		}
		for i, sl := range scriptLanguages {
			if unicode.Is(sl.table, r) {
				found[i] = true
				break
			}
		}
	}
	if found == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{}, len(scriptLanguages))
	for i, ok := range found {
		if !ok {
			continue
		}
		code := scriptLanguages[i].code
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
