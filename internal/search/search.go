// Package search discovers candidate directory URLs through the HTML
// frontends of DuckDuckGo and Bing (no API keys). It feeds the pipeline's
// Searching stage when static seed sources are too thin; the engine treats
// it as a plain function returning zero or more URLs.
package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/orgscout/internal/fetch"
	"github.com/octobees/orgscout/internal/normalize"
)

const (
	ddgBase  = "https://duckduckgo.com/html/"
	bingBase = "https://www.bing.com/search"

	// maxResults caps the candidate list handed to the engine.
	maxResults = 200

	maxQueryLen = 200
	maxTermLen  = 100
)

// Contact vocabulary per target language; English doubles as the fallback.
var contactWords = map[string][]string{
	"en": {"email", "contact", "directory"},
	"fr": {"email", "contact", "annuaire"},
	"de": {"email", "kontakt", "verzeichnis"},
	"es": {"email", "contacto", "directorio"},
	"th": {"email", "ติดต่อ", "ไดเรกทอรี"},
}

// Domains that are themselves search engines or platforms, never directory
// material.
var badDomains = map[string]struct{}{
	"google.com": {}, "bing.com": {}, "yahoo.com": {}, "duckduckgo.com": {},
	"facebook.com": {}, "twitter.com": {}, "instagram.com": {}, "linkedin.com": {},
	"youtube.com": {}, "wikipedia.org": {},
}

var documentExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx"}

// Discoverer runs search-engine queries through the shared polite client.
type Discoverer struct {
	client   *fetch.Client
	maxPages int
}

func New(client *fetch.Client, maxPages int) *Discoverer {
	if maxPages < 1 {
		maxPages = 2
	}
	return &Discoverer{client: client, maxPages: maxPages}
}

// Discover returns candidate URLs for a run. Seed queries from the
// profession's provider lead, then the generic (profession, country)
// variations; both engines are queried per query. Failures of one engine or
// one query degrade the result set, never fail it.
func (d *Discoverer) Discover(ctx context.Context, profession, country, language, keywords string, seedQueries []string) []string {
	queries := assembleQueries(seedQueries, profession, country, language, keywords)
	if len(queries) == 0 {
		log.Printf("search: nothing to query: profession=%q country=%q seed_queries=%d", profession, country, len(seedQueries))
		return nil
	}

	var all []string
	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}
		all = append(all, d.engine(ctx, ddgPageURL, query)...)
		all = append(all, d.engine(ctx, bingPageURL, query)...)
	}

	out := make([]string, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, u := range all {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == maxResults {
			break
		}
	}
	return out
}

// engine pages through one search engine for one query until a page yields
// nothing or errors out.
func (d *Discoverer) engine(ctx context.Context, pageURL func(string, int) string, query string) []string {
	var urls []string
	for page := 0; page < d.maxPages; page++ {
		target := pageURL(query, page)
		resp, err := d.client.Get(ctx, target)
		if err != nil || resp.StatusCode != http.StatusOK {
			break
		}
		found := extractResults(resp.Body)
		if len(found) == 0 {
			break
		}
		urls = append(urls, found...)
	}
	return urls
}

func ddgPageURL(query string, page int) string {
	v := url.Values{"q": {query}}
	if page > 0 {
		v.Set("s", fmt.Sprint(page*50))
	}
	return ddgBase + "?" + v.Encode()
}

func bingPageURL(query string, page int) string {
	v := url.Values{"q": {query}}
	if page > 0 {
		v.Set("first", fmt.Sprint(page*10+1))
	}
	return bingBase + "?" + v.Encode()
}

// extractResults pulls organic result links out of an engine results page.
// Selector sets cover both engines' markups; generic anchors are the last
// resort for layout changes.
func extractResults(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var urls []string
	collect := func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if ValidResult(href) {
			urls = append(urls, href)
		}
	}
	doc.Find("a.result__a, a[data-testid=result-title-a]").Each(collect)
	doc.Find("li.b_algo h2 a").Each(collect)
	if len(urls) == 0 {
		doc.Find("a[href^=http]").Each(collect)
	}
	return urls
}

var termReplacer = strings.NewReplacer(
	"<", " ", ">", " ", `"`, " ", "'", " ", "&", " ",
	";", " ", "|", " ", "`", " ", "$", " ",
)

// SanitizeTerm strips shell- and markup-hazardous characters from a search
// term and bounds its length.
func SanitizeTerm(term string) string {
	term = termReplacer.Replace(term)
	term = strings.Join(strings.Fields(term), " ")
	if len(term) > maxTermLen {
		term = term[:maxTermLen]
	}
	return term
}

// sanitizeQuery cleans a whole query string the way SanitizeTerm cleans one
// term, bounded by the query length instead. Degenerate queries become "".
func sanitizeQuery(q string) string {
	q = termReplacer.Replace(q)
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > maxQueryLen {
		q = q[:maxQueryLen]
	}
	if len(q) < 5 {
		return ""
	}
	return q
}

// assembleQueries merges the profession provider's seed queries with the
// generic variations. Seed queries come first: they carry curated directory
// vocabulary the templates cannot know. The result is de-duplicated in order.
func assembleQueries(seedQueries []string, profession, country, language, keywords string) []string {
	var queries []string
	seen := make(map[string]struct{})
	add := func(q string) {
		if q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, q := range seedQueries {
		add(sanitizeQuery(q))
	}
	profession = SanitizeTerm(profession)
	country = SanitizeTerm(country)
	if profession != "" && country != "" {
		for _, q := range buildQueries(profession, country, language, SanitizeTerm(keywords)) {
			add(q)
		}
	}
	return queries
}

func buildQueries(profession, country, language, keywords string) []string {
	words := contactWords[strings.ToLower(language)]
	if words == nil {
		words = contactWords["en"]
	}
	templates := []string{
		"%[1]s %[2]s",
		"%[1]s %[2]s %[3]s %[4]s",
		"%[1]s %[2]s email contact",
		"%[1]s %[2]s directory association",
		"%[1]s %[2]s %[3]s site:*.org",
	}
	var queries []string
	for _, tmpl := range templates {
		q := fmt.Sprintf(tmpl, profession, country, words[0], words[1])
		if keywords != "" {
			q += " " + keywords
		}
		if len(q) >= 5 && len(q) <= maxQueryLen {
			queries = append(queries, q)
		}
	}
	return queries
}

// ValidResult filters engine hits down to plausible directory pages:
// no engine/platform domains, no heavy documents, no nested result pages.
func ValidResult(raw string) bool {
	if len(raw) > 1000 {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	domain := normalize.Domain(raw)
	if domain == "" {
		return false
	}
	if _, bad := badDomains[domain]; bad {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	lower := strings.ToLower(raw)
	for _, marker := range []string{"search?", "results?", "query=", "/search/"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
