// Package slug derives URL-safe identifiers from product and part titles.
package slug

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Marques and part names carry accented characters ("Citroën", "Škoda");
// fold the common European ones to ASCII instead of dropping them.
var accentFolder = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ä", "a", "å", "a",
	"ç", "c", "č", "c",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ñ", "n",
	"ò", "o", "ó", "o", "ô", "o", "ö", "o", "ø", "o",
	"š", "s",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ž", "z",
)

// Generate lowercases the input, folds accents, and reduces everything else
// to single hyphens:
//
//	"Citroën C3 Brake Pads" → "citroen-c3-brake-pads"
//	"Škoda  Octavia!"       → "skoda-octavia"
func Generate(name string) string {
	s := accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
