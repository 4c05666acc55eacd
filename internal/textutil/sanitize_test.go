package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"  ":                  "",
		"a/b:c*d?.mp3":        "a-b-c-d.mp3",
		"..hidden.wav":        "hidden.wav",
		`say "what" <x>|.ogg`: "say what x.ogg",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDerivedName(t *testing.T) {
	tests := []struct {
		name, suffix, ext, want string
	}{
		{"Episode 12.MP3", "clean", ".wav", "Episode 12_clean.mp3"},
		{"../../etc/passwd", "clean", ".wav", "passwd_clean.wav"},
		{`C:\Users\me\talk.flac`, "preview", "", "talk_preview.flac"},
		{"", "clean", ".wav", "audio_clean.wav"},
		{"take.wav", "", "", "take.wav"},
	}
	for _, tt := range tests {
		if got := DerivedName(tt.name, tt.suffix, tt.ext); got != tt.want {
			t.Fatalf("DerivedName(%q, %q, %q) = %q, want %q", tt.name, tt.suffix, tt.ext, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Worker #2"); got != "worker__2" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken("!!"); got != "unknown" {
		t.Fatalf("unexpected token %q", got)
	}
}
