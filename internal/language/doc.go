// Package language normalizes language identifiers coming from detectors,
// configuration, and users onto ISO 639-1 codes.
//
// Detectors report languages in several shapes: two-letter codes, three-letter
// codes, English names ("spanish"), and BCP-47 tags ("pt-BR"). The lexicon is
// keyed by ISO 639-1, so every value passes through ToISO2 first.
package language
