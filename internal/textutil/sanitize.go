package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Leading dots are dropped so the result is never
// hidden or a relative path component.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	return strings.TrimLeft(name, ".")
}

// DerivedName builds "<stem>_<suffix><ext>" from a user-facing file name,
// keeping ext when name has none. Unusable names fall back to "audio".
func DerivedName(name, suffix, ext string) string {
	clean := SanitizeFileName(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if e := filepath.Ext(clean); e != "" {
		ext = e
		clean = strings.TrimSuffix(clean, e)
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = "audio"
	}
	if suffix = SanitizeToken(suffix); suffix != "unknown" {
		clean += "_" + suffix
	}
	return clean + strings.ToLower(ext)
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
