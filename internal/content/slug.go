package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify folds s into a URL-safe anchor fragment: diacritics stripped,
// lowercased, runs of anything but letters and digits collapsed to single
// hyphens. CJK letters pass through unchanged, matching how the site tool
// derives heading anchors.
func Slugify(s string) string {
	folded, _, err := transform.String(deaccent, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NormalizeInline canonicalizes free text destined for front matter and
// thumbnails: NFC form, inner whitespace collapsed, outer whitespace trimmed.
// Equivalent inputs produce identical bytes, which keeps re-generated objects
// byte-stable.
func NormalizeInline(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
