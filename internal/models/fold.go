package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold canonicalizes a card name for comparison: decompose, strip combining
// marks, recompose, lower-case. "Séance" and "seance" fold to the same
// string. The folded form is never shown to the user.
func Fold(name string) string {
	out, _, err := transform.String(foldTransformer, name)
	if err != nil {
		out = name
	}
	return strings.ToLower(out)
}

// FrontFace returns the part of a dual-face name before the "//" separator,
// trimmed, and the name unchanged when there is no separator.
func FrontFace(name string) string {
	if i := strings.Index(name, "//"); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}
