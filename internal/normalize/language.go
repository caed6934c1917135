package normalize

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

type scriptRange struct {
	code string
	lo   rune
	hi   rune
}

// Checked in order; Hiragana/Katakana before the unified CJK block so that
// Japanese text with kanji still resolves to "ja".
var scriptRanges = []scriptRange{
	{"th", 0x0E00, 0x0E7F},
	{"ru", 0x0400, 0x04FF},
	{"ar", 0x0600, 0x06FF},
	{"he", 0x0590, 0x05FF},
	{"ja", 0x3040, 0x30FF},
	{"ko", 0xAC00, 0xD7AF},
	{"zh", 0x4E00, 0x9FFF},
	{"hi", 0x0900, 0x097F},
}

var tldLanguages = map[string]string{
	".th": "th", ".de": "de", ".ru": "ru", ".fr": "fr", ".es": "es",
	".it": "it", ".pt": "pt", ".jp": "ja", ".kr": "ko", ".cn": "zh",
}

const statisticalMinLength = 50

// DetectLanguage guesses the language of text, optionally helped by the
// website URL's top-level domain. Tiers: dominant Unicode script first, TLD
// hint second, statistical detection last (only for texts long enough to be
// reliable). Returns "" rather than guessing when no tier is confident.
func DetectLanguage(text, websiteURL string) string {
	t := strings.TrimSpace(text)

	if code := dominantScript(t); code != "" {
		return code
	}

	if websiteURL != "" {
		host := Domain(websiteURL)
		for tld, code := range tldLanguages {
			if strings.HasSuffix(host, tld) {
				return code
			}
		}
	}

	if len([]rune(t)) >= statisticalMinLength {
		info := whatlanggo.Detect(t)
		if info.IsReliable() {
			if code := info.Lang.Iso6391(); code != "" {
				return code
			}
		}
	}

	return ""
}

// dominantScript returns a language code when one script covers at least 20%
// of the text or 5 characters, whichever is larger. Short embedded foreign
// words must not reclassify a mostly-Latin text.
func dominantScript(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	threshold := len(runes) / 5
	if threshold < 5 {
		threshold = 5
	}

	for _, sr := range scriptRanges {
		count := 0
		for _, r := range runes {
			if r >= sr.lo && r <= sr.hi {
				count++
			}
		}
		if count >= threshold {
			return sr.code
		}
	}
	return ""
}
