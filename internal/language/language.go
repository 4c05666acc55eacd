package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "castilian"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch", "flemish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"no", "nor", "nob", "Norwegian", []string{"norwegian", "bokmal"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
	{"ms", "msa", "may", "Malay", []string{"malay"}},
	{"tl", "tgl", "fil", "Tagalog", []string{"tagalog", "filipino"}},
	{"sw", "swa", "", "Swahili", []string{"swahili"}},
	{"ur", "urd", "", "Urdu", []string{"urdu"}},
	{"bn", "ben", "", "Bengali", []string{"bengali", "bangla"}},
	{"ta", "tam", "", "Tamil", []string{"tamil"}},
	{"te", "tel", "", "Telugu", []string{"telugu"}},
	{"mr", "mar", "", "Marathi", []string{"marathi"}},
	{"gu", "guj", "", "Gujarati", []string{"gujarati"}},
	{"pa", "pan", "", "Punjabi", []string{"punjabi", "panjabi"}},
	{"ml", "mal", "", "Malayalam", []string{"malayalam"}},
	{"kn", "kan", "", "Kannada", []string{"kannada"}},
	{"or", "ori", "ory", "Oriya", []string{"oriya", "odia"}},
	{"as", "asm", "", "Assamese", []string{"assamese"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if base := baseOfTag(code); base != "" {
		if e, ok := byCode2[base]; ok {
			return e
		}
	}
	return nil
}

// baseOfTag parses a BCP-47 tag such as "pt-BR" or "zh_Hant" and returns its
// two-letter base language when one exists.
func baseOfTag(code string) string {
	if !strings.ContainsAny(code, "-_") {
		return ""
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// ToISO2 converts any recognized language code, name, or tag to ISO 639-1.
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return baseOfTag(code)
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Known reports whether code maps onto one of the supported languages.
func Known(code string) bool {
	return lookup(code) != nil
}

// Supported returns the ISO 639-1 codes of every supported language.
func Supported() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code2)
	}
	return out
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
// Unrecognized values are dropped.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		code := ToISO2(value)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
