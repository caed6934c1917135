// Package parse turns directory-style HTML pages into raw organization
// entries. Strategies are tried in decreasing order of structure (lists,
// tables, cards, bare links, free text); the first one that yields anything
// wins for the whole page, since layout tends to be uniform within a page.
package parse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/orgscout/internal/entity"
)

// Options tunes a parse pass. Category labels the source section the page
// came from; ExtraExclusions extends the built-in navigation-word list for
// locales the baseline does not cover.
type Options struct {
	Category        string
	ExtraExclusions []string
}

const (
	minNameLen = 3
	maxNameLen = 250

	minDescLen = 10
	maxDescLen = 1000

	// Free-text scan windows: how far past a name line to look for a URL,
	// and past the URL for description lines.
	urlLookahead  = 5
	descLookahead = 7
)

// Navigation, footer and pagination noise that never names an organization.
// French and English because the directories this targets are mostly one of
// the two; matched as substrings against the lowercased line.
var baseExclusions = []string{
	"copyright", "accueil", "contact", "mentions", "signaler",
	"modifier", "visites depuis", "nouveautés", "nous contacter",
	"proposer", "filtrer", "top clics", "cookies", "newsletter",
	"suivant", "précédent", "next page", "previous page",
	"se connecter", "s'inscrire", "log in", "sign up",
	"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var (
	cardClassRe = regexp.MustCompile(`(?i)card|result|item|listing`)
	letterRe    = regexp.MustCompile(`\p{L}`)
	digitRunRe  = regexp.MustCompile(`[0-9]{3,}`)
	urlLineRe   = regexp.MustCompile(`(?i)^(?:www\.|https?://)|\.(?:com|org|net|fr|th|io|co)\b`)
)

// ExtractEntries parses one page of HTML into raw entries. A page no
// strategy can read contributes zero entries; that is not an error.
func ExtractEntries(html, sourceURL string, opts Options) []*entity.OrganizationEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(sourceURL)
	excl := append(append([]string(nil), baseExclusions...), lowerAll(opts.ExtraExclusions)...)

	strategies := []func(*goquery.Document, *url.URL, string, []string) []*entity.OrganizationEntry{
		fromLists,
		fromTables,
		fromCards,
		fromLinks,
		fromFreeText,
	}
	for _, strategy := range strategies {
		if entries := strategy(doc, base, opts.Category, excl); len(entries) > 0 {
			for _, e := range entries {
				e.SourceURL = sourceURL
				e.QualityScore = ProvisionalScore(e)
			}
			return entries
		}
	}
	return nil
}

// ProvisionalScore is the crude additive pre-enrichment score (0-10):
// having a website and a substantial description is most of the signal.
func ProvisionalScore(e *entity.OrganizationEntry) int {
	score := 0
	if len(e.Name) > 3 {
		score += 2
	}
	if e.Website != "" {
		score += 3
	}
	if len(e.Description) > 20 {
		score += 2
	}
	if len(e.Description) > 100 {
		score++
	}
	if strings.Contains(e.Description, "@") {
		score++
	}
	if digitRunRe.MatchString(e.Description) {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}

func fromLists(doc *goquery.Document, base *url.URL, category string, excl []string) []*entity.OrganizationEntry {
	var entries []*entity.OrganizationEntry
	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		items := list.ChildrenFiltered("li")
		linked := items.FilterFunction(func(_ int, li *goquery.Selection) bool {
			return li.Find("a[href]").Length() > 0
		})
		if linked.Length() < 3 {
			return
		}
		linked.Each(func(_ int, li *goquery.Selection) {
			anchor := li.Find("a[href]").First()
			name := cleanText(anchor.Text())
			if name == "" {
				name = cleanText(li.Text())
			}
			if !plausibleName(name, excl) {
				return
			}
			href, _ := anchor.Attr("href")
			entries = append(entries, &entity.OrganizationEntry{
				Name:        name,
				Category:    category,
				Website:     resolveHref(base, href),
				Description: cleanText(li.Find("p, small").Text()),
			})
		})
	})
	return entries
}

// Header keywords per semantic column, matched as substrings against the
// lowercased header-cell text.
var columnKeywords = map[string][]string{
	"name":        {"name", "nom", "organization", "organisation", "company", "société", "entreprise"},
	"website":     {"website", "site", "url", "web", "lien"},
	"description": {"description", "détails", "details", "info", "activité"},
	"phone":       {"phone", "tel", "téléphone", "mobile"},
	"email":       {"email", "e-mail", "mail", "courriel"},
}

func fromTables(doc *goquery.Document, base *url.URL, category string, excl []string) []*entity.OrganizationEntry {
	var entries []*entity.OrganizationEntry
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}
		columns := mapColumns(rows.First())
		nameCol, ok := columns["name"]
		if !ok {
			return
		}
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			name := cleanText(cellText(cells, nameCol))
			if !plausibleName(name, excl) {
				return
			}
			e := &entity.OrganizationEntry{Name: name, Category: category}
			if col, ok := columns["website"]; ok {
				cell := cells.Eq(col)
				if href, exists := cell.Find("a[href]").First().Attr("href"); exists {
					e.Website = resolveHref(base, href)
				} else {
					e.Website = resolveHref(base, cleanText(cell.Text()))
				}
			}
			if col, ok := columns["description"]; ok {
				e.Description = cleanText(cellText(cells, col))
			}
			if col, ok := columns["phone"]; ok {
				e.Phone = cleanText(cellText(cells, col))
			}
			if col, ok := columns["email"]; ok {
				e.Email = strings.ToLower(cleanText(cellText(cells, col)))
			}
			entries = append(entries, e)
		})
	})
	return entries
}

func mapColumns(headerRow *goquery.Selection) map[string]int {
	columns := make(map[string]int)
	headerRow.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		header := strings.ToLower(cleanText(cell.Text()))
		for semantic, keywords := range columnKeywords {
			if _, taken := columns[semantic]; taken {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(header, kw) {
					columns[semantic] = i
					break
				}
			}
		}
	})
	return columns
}

func cellText(cells *goquery.Selection, col int) string {
	if col >= cells.Length() {
		return ""
	}
	return cells.Eq(col).Text()
}

func fromCards(doc *goquery.Document, base *url.URL, category string, excl []string) []*entity.OrganizationEntry {
	var entries []*entity.OrganizationEntry
	doc.Find("div, article").Each(func(_ int, block *goquery.Selection) {
		class, _ := block.Attr("class")
		if !cardClassRe.MatchString(class) {
			return
		}
		// Skip containers whose children are themselves cards.
		if block.ChildrenFiltered("div, article").FilterFunction(func(_ int, c *goquery.Selection) bool {
			cc, _ := c.Attr("class")
			return cardClassRe.MatchString(cc)
		}).Length() > 0 {
			return
		}
		name := cleanText(block.Find("h1, h2, h3, h4, h5, h6").First().Text())
		anchor := block.Find("a[href]").First()
		if name == "" {
			name = cleanText(anchor.Text())
		}
		if !plausibleName(name, excl) {
			return
		}
		href, _ := anchor.Attr("href")
		entries = append(entries, &entity.OrganizationEntry{
			Name:        name,
			Category:    category,
			Website:     resolveHref(base, href),
			Description: cleanText(block.Find("p, small").Text()),
		})
	})
	return entries
}

func fromLinks(doc *goquery.Document, base *url.URL, category string, excl []string) []*entity.OrganizationEntry {
	var entries []*entity.OrganizationEntry
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(href, "#") {
			return
		}
		name := cleanText(anchor.Text())
		if !plausibleName(name, excl) {
			return
		}
		website := resolveHref(base, href)
		if website == "" {
			return
		}
		if _, dup := seen[website]; dup {
			return
		}
		seen[website] = struct{}{}
		entries = append(entries, &entity.OrganizationEntry{
			Name:     name,
			Category: category,
			Website:  website,
		})
	})
	return entries
}

// fromFreeText is the last resort for pages with no recognizable structure:
// walk visible text line by line, treat a plausible line as a name, then
// look ahead a few lines for a URL and a description.
func fromFreeText(doc *goquery.Document, base *url.URL, category string, excl []string) []*entity.OrganizationEntry {
	doc.Find("script, style, noscript").Remove()
	raw := strings.Split(doc.Text(), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = cleanText(l); l != "" {
			lines = append(lines, l)
		}
	}

	var entries []*entity.OrganizationEntry
	for i := 0; i < len(lines); i++ {
		if !plausibleName(lines[i], excl) {
			continue
		}
		e := &entity.OrganizationEntry{Name: lines[i], Category: category}

		for j := i + 1; j < len(lines) && j <= i+urlLookahead; j++ {
			if !urlShaped(lines[j]) {
				continue
			}
			e.Website = resolveHref(base, lines[j])

			var desc []string
			for k := j + 1; k < len(lines) && k <= j+descLookahead; k++ {
				if descriptionShaped(lines[k], excl) {
					desc = append(desc, lines[k])
				} else if plausibleName(lines[k], excl) || urlShaped(lines[k]) {
					break
				}
			}
			e.Description = strings.Join(desc, " ")
			break
		}
		entries = append(entries, e)
	}
	return entries
}

func plausibleName(text string, excl []string) bool {
	n := len([]rune(text))
	if n < minNameLen || n > maxNameLen {
		return false
	}
	if !letterRe.MatchString(text) {
		return false
	}
	if urlShaped(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, word := range excl {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}

func descriptionShaped(text string, excl []string) bool {
	n := len([]rune(text))
	if n < minDescLen || n > maxDescLen {
		return false
	}
	if len(strings.Fields(text)) < 3 {
		return false
	}
	lower := strings.ToLower(text)
	for _, word := range excl {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}

func urlShaped(text string) bool {
	return urlLineRe.MatchString(strings.TrimSpace(text))
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(href), "www.") {
		href = "https://" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Host == "" {
		return ""
	}
	return ref.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
