package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var contactLabelRe = regexp.MustCompile(`(?i)contact|about|impress(um)?|mentions|legal|privacy|terms`)

// Paths tried when a page exposes no labelled contact links at all.
var guessedContactPaths = []string{"/contact", "/contact-us", "/about", "/about-us", "/legal", "/impressum"}

// ContactLikeLinks scans anchors for contact/about/legal labels and returns
// absolute URLs resolved against baseURL. When nothing matches, common
// guessed paths on the same host are returned instead.
func ContactLikeLinks(html, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		ref, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		s := resolved.String()
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
				return
			}
			if contactLabelRe.MatchString(sel.Text()) || contactLabelRe.MatchString(href) {
				add(href)
			}
		})
	}

	if len(out) == 0 {
		for _, path := range guessedContactPaths {
			add(path)
		}
	}
	return out
}
