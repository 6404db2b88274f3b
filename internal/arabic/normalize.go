// Package arabic canonicalizes Arabic free text for answer comparison.
// The canonical form is only ever compared, never shown to the user.
package arabic

import "strings"

// Diacritical marks (tashkeel) removed outright.
const (
	fathatan = 'ً'
	dammatan = 'ٌ'
	kasratan = 'ٍ'
	fatha    = 'َ'
	damma    = 'ُ'
	kasra    = 'ِ'
	shadda   = 'ّ'
	sukun    = 'ْ'

	tatweel = 'ـ' // elongation mark
)

// Hamza-carrying letter shapes folded to their base form.
var hamzaFolds = map[rune]rune{
	'آ': 'ا', // alef madda  → alef
	'أ': 'ا', // alef hamza above → alef
	'إ': 'ا', // alef hamza below → alef
	'ٱ': 'ا', // alef wasla → alef
	'ؤ': 'و', // waw hamza → waw
	'ئ': 'ي', // yeh hamza → yeh
}

// Presentation-form lam-alef ligatures expanded to lam + alef,
// so ligature and two-letter spellings compare equal.
var ligatureFolds = map[rune]string{
	'ﻵ': "لآ",
	'ﻶ': "لآ",
	'ﻷ': "لأ",
	'ﻸ': "لأ",
	'ﻹ': "لإ",
	'ﻺ': "لإ",
	'ﻻ': "لا",
	'ﻼ': "لا",
}

// Punctuation stripped before comparison (Arabic and Latin).
const punctuation = "،؛؟.,;:!?\"'()[]{}«»…-"

// Normalize returns the canonical comparison form of raw text: tashkeel
// and tatweel stripped, hamza shapes folded, lam-alef ligatures expanded,
// punctuation removed and surrounding whitespace trimmed. It is total:
// any input yields a result, empty in the worst case.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case isTashkeel(r), r == tatweel:
			// drop
		case strings.ContainsRune(punctuation, r):
			// drop
		default:
			if base, ok := hamzaFolds[r]; ok {
				b.WriteRune(base)
			} else if expanded, ok := ligatureFolds[r]; ok {
				b.WriteString(expanded)
			} else {
				b.WriteRune(r)
			}
		}
	}

	// ligature expansion can reintroduce a foldable alef form
	out := b.String()
	if strings.ContainsAny(out, "آأإ") {
		out = strings.NewReplacer(
			"آ", "ا",
			"أ", "ا",
			"إ", "ا",
		).Replace(out)
	}

	return strings.TrimSpace(out)
}

func isTashkeel(r rune) bool {
	return r >= fathatan && r <= sukun
}
