// Package enrich fills the gaps the page parser left: it re-reads the
// entry's own description, fetches its website and contact-like subpages,
// and, for stubborn entries, queries alternative sources (platform search
// pages, local directories) in parallel. Enrichment never fails the
// pipeline; any network or parse error leaves the entry as it was.
package enrich

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/octobees/orgscout/internal/config"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/extract"
	"github.com/octobees/orgscout/internal/fetch"
	"github.com/octobees/orgscout/internal/normalize"
)

const (
	websiteTimeout     = 8 * time.Second
	contactPageTimeout = 5 * time.Second
	altSourceTimeout   = 10 * time.Second

	// defaultMaxContactPages bounds secondary fetches per entry.
	defaultMaxContactPages = 3
)

// Enricher runs the single- and multi-source enrichment passes. The three
// clients carry different timeouts: websites get the longest leash,
// contact subpages the shortest.
type Enricher struct {
	sites *fetch.Client
	pages *fetch.Client
	alt   *fetch.Client

	maxContactPages int
	altWorkers      int
}

func New(sites, pages, alt *fetch.Client) *Enricher {
	return &Enricher{
		sites:           sites,
		pages:           pages,
		alt:             alt,
		maxContactPages: defaultMaxContactPages,
		altWorkers:      defaultAltWorkers,
	}
}

// FromConfig wires an Enricher from scraper settings. Alternative-source
// lookups hit independent third-party hosts, so their client runs with a
// shorter politeness delay than the per-site clients.
func FromConfig(cfg config.ScraperConfig, cache *redis.Client) *Enricher {
	altCfg := cfg
	if altCfg.DelayMS > 300 {
		altCfg.DelayMS /= 3
	}
	return New(
		fetch.New(cfg, fetch.WithTimeout(websiteTimeout), fetch.WithCache(cache)),
		fetch.New(cfg, fetch.WithTimeout(contactPageTimeout), fetch.WithCache(cache)),
		fetch.New(altCfg, fetch.WithTimeout(altSourceTimeout)),
	)
}

// Enrich is the single-source pass: description text, then the entry's own
// website, then up to maxContactPages contact-like subpages, stopping early
// once both an email and a phone are known.
func (en *Enricher) Enrich(ctx context.Context, e *entity.OrganizationEntry) *entity.OrganizationEntry {
	if e == nil {
		return nil
	}
	SanitizeContacts(e)
	region := normalize.RegionForCountry(e.Country)

	en.absorb(e, e.Description, region)

	if e.Website == "" {
		return e
	}
	page, err := en.sites.Get(ctx, e.Website)
	if err != nil || page.StatusCode != http.StatusOK {
		if err != nil {
			log.Printf("enrich: website fetch skipped: name=%q url=%s error=%v", e.Name, e.Website, err)
		}
		return e
	}
	en.absorb(e, page.Body, region)

	links := extract.ContactLikeLinks(page.Body, e.Website)
	if len(links) > en.maxContactPages {
		links = links[:en.maxContactPages]
	}
	for _, link := range links {
		if e.Email != "" && e.Phone != "" {
			break
		}
		if ctx.Err() != nil {
			break
		}
		sub, err := en.pages.Get(ctx, link)
		if err != nil || sub.StatusCode != http.StatusOK {
			continue
		}
		en.absorb(e, sub.Body, region)
	}
	return e
}

// SanitizeContacts re-normalizes contact fields seeded by the page parser,
// which stores cell text verbatim: phones become E.164 for the entry's
// country (unparseable values are dropped) and email values must pass the
// extractor's own matching. Values already normalized survive unchanged.
func SanitizeContacts(e *entity.OrganizationEntry) {
	if e == nil {
		return
	}
	region := normalize.RegionForCountry(e.Country)
	if e.Phone != "" {
		e.Phone = mergeJoined("", normalize.PhoneList(splitJoined(e.Phone), region), maxJoinedValues)
	}
	if e.Email != "" {
		e.Email = mergeJoined("", extract.Emails(e.Email), maxJoinedValues)
	}
}

// absorb runs every extractor over one text blob and merges the results
// into the entry. Multi-valued fields union, single-valued fields keep
// their first value.
func (en *Enricher) absorb(e *entity.OrganizationEntry, text, region string) {
	if text == "" {
		return
	}
	e.Email = mergeJoined(e.Email, extract.Emails(text), maxJoinedValues)
	e.Phone = mergeJoined(e.Phone, normalize.PhoneList(extract.Phones(text), region), maxJoinedValues)
	e.WhatsApp = mergeJoined(e.WhatsApp, extract.WhatsApp(text), maxHandleValues)
	e.LineID = mergeJoined(e.LineID, extract.LineIDs(text), maxHandleValues)
	e.Telegram = mergeJoined(e.Telegram, extract.Telegrams(text), maxHandleValues)
	e.WeChat = mergeJoined(e.WeChat, extract.WeChatIDs(text), maxHandleValues)

	socials := extract.SocialLinks(text)
	fillFirst(&e.Facebook, first(socials["facebook"]))
	fillFirst(&e.Instagram, first(socials["instagram"]))
	fillFirst(&e.LinkedIn, first(socials["linkedin"]))
	fillFirst(&e.OtherContact, first(socials["youtube"]))
}

// Quality is the enrichment-quality score, tracked separately from the
// parser's quality score: +4 email, +3 phone, +1 any social presence.
func Quality(e *entity.OrganizationEntry) int {
	q := 0
	if e.Email != "" {
		q += 4
	}
	if e.Phone != "" {
		q += 3
	}
	if e.Facebook != "" || e.Instagram != "" || e.LinkedIn != "" ||
		e.LineID != "" || e.Telegram != "" || e.WeChat != "" || e.WhatsApp != "" {
		q++
	}
	if q > 10 {
		q = 10
	}
	return q
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
