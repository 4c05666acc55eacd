package lexicon_test

import (
	"reflect"
	"testing"

	"fwea/internal/lexicon"
)

func TestMatchWholeWordsOnly(t *testing.T) {
	lx := lexicon.Default()
	if got := lx.Match("hello world", "en"); len(got) != 0 {
		t.Fatalf("expected no hits for hello world, got %v", got)
	}
	if got := lx.Match("What the HELL is this", "english"); !reflect.DeepEqual(got, []string{"hell"}) {
		t.Fatalf("unexpected hits %v", got)
	}
	if got := lx.Match("a classic passage", "en"); len(got) != 0 {
		t.Fatalf("expected substring words to be ignored, got %v", got)
	}
}

func TestMatchNonLatinScripts(t *testing.T) {
	lx := lexicon.Default()
	cases := []struct {
		lang, text, want string
	}{
		{"ru", "ну и сука же", "сука"},
		{"zh", "你这个混蛋啊", "混蛋"},
		{"ja", "もうクソだな", "クソ"},
		{"vi", "mày là đồ chó", "đồ chó"},
		{"tl", "putang ina mo", "putang ina"},
		{"pt-BR", "que porra é essa", "porra"},
	}
	for _, tc := range cases {
		got := lx.Match(tc.text, tc.lang)
		if len(got) != 1 || got[0] != tc.want {
			t.Fatalf("%s: Match(%q) = %v, want [%s]", tc.lang, tc.text, got, tc.want)
		}
	}
}

func TestMatchCaseFolding(t *testing.T) {
	lx := lexicon.Default()
	if got := lx.Match("VERDAMMT noch mal", "de"); !reflect.DeepEqual(got, []string{"verdammt"}) {
		t.Fatalf("expected folded match, got %v", got)
	}
	if got := lx.Match("KURWA", "polish"); !reflect.DeepEqual(got, []string{"kurwa"}) {
		t.Fatalf("expected folded match, got %v", got)
	}
}

func TestUnknownLanguageHasNoList(t *testing.T) {
	lx := lexicon.Default()
	if got := lx.Match("shit", "klingon"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestBaseAndPatterns(t *testing.T) {
	lx := lexicon.Default()
	if got := lx.MatchBase("total bullshit mate"); !reflect.DeepEqual(got, []string{"bullshit"}) {
		t.Fatalf("unexpected base hits %v", got)
	}
	hits := lx.MatchPatterns("what the f*u*c*k and s_h_i_t")
	if len(hits) != 2 {
		t.Fatalf("expected two pattern hits, got %+v", hits)
	}
	if hits[0].Word != "fuck" || hits[1].Word != "shit" {
		t.Fatalf("expected separators stripped, got %+v", hits)
	}
	if got := lx.MatchPatterns("hello there, shell class"); len(got) != 0 {
		t.Fatalf("expected no pattern hits, got %+v", got)
	}
	if got := lx.MatchPatterns("damned"); len(got) != 1 {
		t.Fatalf("expected inflected match, got %+v", got)
	}
}

func TestCustomWordsAndToggles(t *testing.T) {
	lx := lexicon.New(lexicon.Options{
		CustomWords: map[string][]string{
			"english":       {"frak"},
			lexicon.BaseKey: {"smeg"},
			"??":            {"ignored"},
		},
		DisablePatterns:   true,
		DisableHeuristics: true,
	})
	if got := lx.Match("oh frak", "en"); !reflect.DeepEqual(got, []string{"frak"}) {
		t.Fatalf("custom word not matched: %v", got)
	}
	if got := lx.MatchBase("smeg head"); !reflect.DeepEqual(got, []string{"smeg"}) {
		t.Fatalf("custom base word not matched: %v", got)
	}
	if got := lx.MatchPatterns("shit"); got != nil {
		t.Fatalf("patterns should be disabled, got %v", got)
	}
	if got := lx.MatchHeuristics("I hate this"); got != nil {
		t.Fatalf("heuristics should be disabled, got %v", got)
	}
}

func TestLanguagesSorted(t *testing.T) {
	langs := lexicon.Default().Languages()
	if len(langs) != 37 {
		t.Fatalf("expected 37 languages, got %d", len(langs))
	}
	for i := 1; i < len(langs); i++ {
		if langs[i-1] >= langs[i] {
			t.Fatalf("languages not sorted: %v", langs)
		}
	}
}
