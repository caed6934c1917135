package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/extract"
	"github.com/octobees/orgscout/internal/normalize"
)

const (
	// defaultAltWorkers bounds concurrent alternative-source fetches for a
	// single entry. The targets are independent hosts, so a small pool wins
	// real time without hammering anyone.
	defaultAltWorkers = 3

	// maxAltSources keeps the alternative-source list light.
	maxAltSources = 5
)

// contactSet is what one alternative source contributed.
type contactSet struct {
	emails  []string
	phones  []string
	socials map[string][]string
}

// EnrichComplete is the multi-source pass: platform search pages, local
// directories and generic web queries fetched in parallel, plus sector and
// geographic classification over the entry's own text. Sets
// EnrichmentQuality as its last step.
func (en *Enricher) EnrichComplete(ctx context.Context, e *entity.OrganizationEntry) *entity.OrganizationEntry {
	if e == nil {
		return nil
	}
	region := normalize.RegionForCountry(e.Country)

	sources := AlternativeSources(e.Name, e.Country)
	if len(sources) > 0 {
		en.mergeAlternatives(ctx, e, sources, region)
	}

	Classify(e)
	return e
}

// Classify runs the offline half of the multi-source pass: sector and
// geographic classification over the entry's own text, plus the
// enrichment-quality score. Entries that are already contact-complete get
// this instead of the full network pass.
func Classify(e *entity.OrganizationEntry) {
	text := e.Name + " " + e.Description
	e.Sectors = DetectSectors(text, e.Profession)
	enrichGeographic(e, text)
	e.EnrichmentQuality = Quality(e)
}

func (en *Enricher) mergeAlternatives(ctx context.Context, e *entity.OrganizationEntry, sources []string, region string) {
	var (
		mu   sync.Mutex
		sets []contactSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(en.altWorkers)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			page, err := en.alt.Get(gctx, src)
			if err != nil || page.StatusCode != http.StatusOK || page.Body == "" {
				return nil // a dead source only degrades this entry
			}
			set := contactSet{
				emails:  extract.Emails(page.Body),
				phones:  normalize.PhoneList(extract.Phones(page.Body), region),
				socials: extract.SocialLinks(page.Body),
			}
			mu.Lock()
			sets = append(sets, set)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var emails, phones []string
	perPlatform := make(map[string][]string)
	for _, set := range sets {
		emails = append(emails, set.emails...)
		phones = append(phones, set.phones...)
		for platform, links := range set.socials {
			perPlatform[platform] = append(perPlatform[platform], links...)
		}
	}
	e.Email = mergeJoined(e.Email, emails, maxJoinedValues)
	e.Phone = mergeJoined(e.Phone, phones, maxJoinedValues)

	for platform, links := range perPlatform {
		if len(links) == 0 {
			continue
		}
		sort.Strings(links)
		switch platform {
		case "facebook":
			fillFirst(&e.Facebook, links[0])
		case "instagram":
			fillFirst(&e.Instagram, links[0])
		case "linkedin":
			fillFirst(&e.LinkedIn, links[0])
		}
	}
}

// AlternativeSources builds the ≤5 lookup URLs for an entry: platform
// searches first, then country-local directories, then generic engines.
func AlternativeSources(name, country string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	q := url.QueryEscape(name)
	qc := url.QueryEscape(country)

	urls := []string{
		fmt.Sprintf("https://www.facebook.com/search/pages/?q=%s", q),
		fmt.Sprintf("https://www.linkedin.com/search/results/companies/?keywords=%s", q),
	}

	cl := strings.ToLower(country)
	switch {
	case strings.Contains(cl, "thailand") || strings.Contains(cl, "thaïlande") || strings.Contains(cl, "thailande"):
		urls = append(urls,
			fmt.Sprintf("https://www.yellowpages.co.th/en/search?q=%s", q),
			fmt.Sprintf("https://foursquare.com/explore?near=Thailand&q=%s", q),
		)
	case strings.Contains(cl, "france"):
		urls = append(urls,
			fmt.Sprintf("https://www.pagesjaunes.fr/annuaire/chercherlespros?quoiqui=%s", q),
			fmt.Sprintf("https://www.yelp.fr/search?find_desc=%s", q),
		)
	}

	urls = append(urls,
		fmt.Sprintf("https://www.google.com/search?q=%%22%s%%22+%s+contact", q, qc),
		fmt.Sprintf("https://duckduckgo.com/?q=%%22%s%%22+%s+email", q, qc),
	)

	if len(urls) > maxAltSources {
		urls = urls[:maxAltSources]
	}
	return urls
}
