// Package dedupe merges organization entries that describe the same
// real-world organization. Identity is established by exact website-domain
// or phone match first, then by fuzzy name similarity. Merging is additive:
// a duplicate never erases data already collected.
package dedupe

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/net/publicsuffix"

	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/normalize"
)

// DefaultThreshold is the token-set similarity (0-100) above which two
// normalized names are considered the same organization.
const DefaultThreshold = 90

// minNameLength guards the fuzzy path: very short names match everything.
const minNameLength = 4

// Deduplicator accumulates entries and folds duplicates into the first
// occurrence. It is not safe for concurrent use; the pipeline feeds it from
// a single goroutine after the enrichment stage.
type Deduplicator struct {
	threshold int
	// bySignature indexes entries by "domain|phone". Domain and phone must
	// BOTH match for the exact fast path; either one alone is too weak
	// (shared hosting, shared office lines).
	bySignature map[string]int
	entries     []*entity.OrganizationEntry
	merged      int
}

func New(threshold int) *Deduplicator {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{
		threshold:   threshold,
		bySignature: make(map[string]int),
	}
}

// Add inserts an entry or merges it into an existing duplicate.
// It reports whether the entry was folded into another one.
func (d *Deduplicator) Add(e *entity.OrganizationEntry) bool {
	if e == nil {
		return false
	}
	if e.NormalizedName == "" {
		e.NormalizedName = normalize.Name(e.Name)
	}

	if idx, ok := d.find(e); ok {
		merge(d.entries[idx], e)
		d.index(idx)
		d.merged++
		return true
	}

	d.entries = append(d.entries, e)
	d.index(len(d.entries) - 1)
	return false
}

// Entries returns the deduplicated entries in first-seen order.
func (d *Deduplicator) Entries() []*entity.OrganizationEntry {
	return d.entries
}

// Merged returns how many entries were folded into earlier ones.
func (d *Deduplicator) Merged() int {
	return d.merged
}

func (d *Deduplicator) find(e *entity.OrganizationEntry) (int, bool) {
	for _, key := range signatures(e) {
		if idx, ok := d.bySignature[key]; ok {
			return idx, true
		}
	}

	if len([]rune(e.NormalizedName)) < minNameLength {
		return 0, false
	}
	for idx, existing := range d.entries {
		if len([]rune(existing.NormalizedName)) < minNameLength {
			continue
		}
		if sameName(existing.NormalizedName, e.NormalizedName, d.threshold) {
			return idx, true
		}
	}
	return 0, false
}

func (d *Deduplicator) index(idx int) {
	for _, key := range signatures(d.entries[idx]) {
		if _, taken := d.bySignature[key]; !taken {
			d.bySignature[key] = idx
		}
	}
}

// signatures returns the exact-identity keys of an entry: its registrable
// domain paired with each of its phones. An entry missing either half has
// no exact signature and relies on the name fallback.
func signatures(e *entity.OrganizationEntry) []string {
	domain := registrableDomain(e.Website)
	if domain == "" {
		return nil
	}
	phones := splitJoined(e.Phone)
	keys := make([]string, 0, len(phones))
	for _, phone := range phones {
		keys = append(keys, domain+"|"+phone)
	}
	return keys
}

// sameName compares two normalized names with a token-set ratio, plus a
// containment check so "siam legal" still matches "siam legal international".
func sameName(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if fuzzy.TokenSetRatio(a, b) >= threshold {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len([]rune(shorter)) >= 8 && strings.Contains(longer, shorter)
}

// registrableDomain reduces a website URL to its eTLD+1 so that
// sub.example.co.th and example.co.th collide.
func registrableDomain(website string) string {
	host := normalize.Domain(website)
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// merge copies fields from src into dst without overwriting anything dst
// already has. Multi-valued contact fields are unioned.
func merge(dst, src *entity.OrganizationEntry) {
	fillString(&dst.Category, src.Category)
	fillString(&dst.Website, src.Website)
	fillString(&dst.WhatsApp, src.WhatsApp)
	fillString(&dst.LineID, src.LineID)
	fillString(&dst.Telegram, src.Telegram)
	fillString(&dst.WeChat, src.WeChat)
	fillString(&dst.Facebook, src.Facebook)
	fillString(&dst.Instagram, src.Instagram)
	fillString(&dst.LinkedIn, src.LinkedIn)
	fillString(&dst.OtherContact, src.OtherContact)
	fillString(&dst.ContactName, src.ContactName)
	fillString(&dst.City, src.City)
	fillString(&dst.Province, src.Province)
	fillString(&dst.Address, src.Address)
	fillString(&dst.Language, src.Language)
	fillString(&dst.Country, src.Country)

	dst.Email = unionJoined(dst.Email, src.Email)
	dst.Phone = unionJoined(dst.Phone, src.Phone)

	if len(src.Description) > len(dst.Description) {
		dst.Description = src.Description
	}
	if dst.Latitude == nil && src.Latitude != nil {
		dst.Latitude, dst.Longitude = src.Latitude, src.Longitude
	}
	dst.Sectors = unionSlices(dst.Sectors, src.Sectors)
	if src.EnrichmentQuality > dst.EnrichmentQuality {
		dst.EnrichmentQuality = src.EnrichmentQuality
	}
}

func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func splitJoined(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ";")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func unionJoined(a, b string) string {
	values := splitJoined(a)
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	for _, v := range splitJoined(b) {
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	return strings.Join(values, "; ")
}

func unionSlices(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			a = append(a, v)
		}
	}
	return a
}
