// Package extract turns raw text and HTML into typed contact candidates.
// Every extractor is a pure function: no I/O, no state, deduplicated sorted
// output. Messaging IDs are anchored on explicit labels or canonical link
// shapes; free text is full of incidental digit runs and words, and without
// anchoring the false-positive rate is unacceptable.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	// Loose on purpose: over-capture here, filter in normalization.
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)

	whatsappRe = regexp.MustCompile(`(?i)(?:wa\.me/|api\.whatsapp\.com/(?:send/?\?phone=)?)(\+\d{7,15})`)
	lineIDRe   = regexp.MustCompile(`(?i)line\s*id\s*[:：]\s*([A-Za-z0-9._\-]{4,20})`)
	telegramRe = regexp.MustCompile(`(?i)(?:t\.me/|@)([a-z0-9_]{5,32})\b`)
	wechatRe   = regexp.MustCompile(`(?i)wechat\s*id\s*[:：]\s*([a-z0-9_\-]{6,20})`)
)

var socialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?facebook\.com/[A-Za-z0-9_.\-/%?=&#]+`),
	"instagram": regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?instagram\.com/[A-Za-z0-9_.\-/%?=&#]+`),
	"linkedin":  regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/[A-Za-z0-9_.\-/%?=&#]+`),
	"line":      regexp.MustCompile(`(?i)(?:https?://)?line\.me/[A-Za-z0-9_.\-/%?=&#]+`),
	"telegram":  regexp.MustCompile(`(?i)(?:https?://)?t\.me/[A-Za-z0-9_.\-/%?=&#]+`),
	"wechat":    regexp.MustCompile(`(?i)(?:https?://)?weixin\.qq\.com/[A-Za-z0-9_.\-/%?=&#]+`),
	"youtube":   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/[A-Za-z0-9_.\-/%?=&#]+`),
}

var obfuscations = strings.NewReplacer(
	"[at]", "@", "(at)", "@", " at ", "@",
	"[dot]", ".", "(dot)", ".", " dot ", ".",
	"\u00a0", " ", "\u200b", "",
)

// Emails returns syntactically valid addresses found in text, lowercased,
// after recovering hand-obfuscated forms like "contact [at] example [dot] com".
func Emails(text string) []string {
	if text == "" {
		return nil
	}
	t := obfuscations.Replace(text)
	matches := emailRe.FindAllString(t, -1)
	return uniqueSorted(matches, strings.ToLower)
}

// Phones returns raw digit sequences that look like phone numbers. Validation
// happens at the normalization boundary, not here.
func Phones(text string) []string {
	if text == "" {
		return nil
	}
	matches := phoneRe.FindAllString(text, -1)
	return uniqueSorted(matches, strings.TrimSpace)
}

// WhatsApp returns international numbers referenced through wa.me or
// api.whatsapp.com links. Free-floating phone numbers are deliberately not
// treated as WhatsApp.
func WhatsApp(text string) []string {
	return captureGroup(whatsappRe, text, nil)
}

// LineIDs returns tokens following an explicit "Line ID:" label.
func LineIDs(text string) []string {
	return captureGroup(lineIDRe, text, func(id string) bool {
		lower := strings.ToLower(id)
		return !strings.HasPrefix(lower, "http") && !strings.HasPrefix(lower, "www")
	})
}

// Telegrams returns usernames referenced as @username or t.me/username.
func Telegrams(text string) []string {
	if text == "" {
		return nil
	}
	// @-mentions colliding with email local parts are not telegram handles.
	stripped := emailRe.ReplaceAllString(text, " ")
	var out []string
	for _, m := range telegramRe.FindAllStringSubmatch(stripped, -1) {
		out = append(out, strings.ToLower(m[1]))
	}
	return uniqueSorted(out, nil)
}

// WeChatIDs returns tokens following an explicit "WeChat ID:" label.
func WeChatIDs(text string) []string {
	return captureGroup(wechatRe, text, nil)
}

// SocialLinks returns per-platform URL matches over known social domains.
// Platforms without a hit map to an empty slice.
func SocialLinks(text string) map[string][]string {
	out := make(map[string][]string, len(socialPatterns))
	for platform, re := range socialPatterns {
		if text == "" {
			out[platform] = nil
			continue
		}
		out[platform] = uniqueSorted(re.FindAllString(text, -1), nil)
	}
	return out
}

func captureGroup(re *regexp.Regexp, text string, keep func(string) bool) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		v := m[1]
		if keep != nil && !keep(v) {
			continue
		}
		out = append(out, v)
	}
	return uniqueSorted(out, nil)
}

func uniqueSorted(values []string, transform func(string) string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if transform != nil {
			v = transform(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
