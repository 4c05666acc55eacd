package language

import (
	"reflect"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"tur", "tr"},
		{"fil", "tl"},
		{"odia", "or"},
		{"english", "en"},
		{"Spanish", "es"},
		{"GERMAN", "de"},
		{"pt-BR", "pt"},
		{"zh_Hant", "zh"},
		{"en-US", "en"},
		{"xy", "xy"},
		{"xyz", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ToISO2(tt.input); result != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("sw"); got != "Swahili" {
		t.Fatalf("DisplayName(sw) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("qq"); got != "QQ" {
		t.Fatalf("DisplayName(qq) = %q", got)
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"English", "en", "spa", "klingon", "pt-PT"})
	want := []string{"en", "es", "pt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestSupportedCoversLexiconLanguages(t *testing.T) {
	if n := len(Supported()); n != 37 {
		t.Fatalf("expected 37 supported languages, got %d", n)
	}
	for _, code := range Supported() {
		if !Known(code) {
			t.Fatalf("supported code %q not known", code)
		}
	}
}

func TestDetectScripts(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"plain english", nil},
		{"cứt thằng ngu", nil},
		{"ну и сука же", []string{"ru"}},
		{"what a كلب today", []string{"ar"}},
		{"クソ野郎", []string{"zh", "ja"}},
		{"씨발 and шит", []string{"ko", "ru"}},
		{"हरामी 123", []string{"hi"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := DetectScripts(tt.text); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("DetectScripts(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}
