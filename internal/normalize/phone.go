// Package normalize canonicalizes extracted values: phones to E.164, URLs to
// a stable shape, names to deduplication keys, locations to known provinces.
// Values that fail canonical parsing are dropped, not surfaced as errors;
// absence of a field is the correct signal.
package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "TH"

// Phone parses a raw phone string against the given default region and
// returns the E.164 canonical form, or "" when the value is not a valid
// number for any region.
func Phone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// PhoneList normalizes a batch of raw candidates, dropping invalid values
// and duplicates while keeping first-seen order.
func PhoneList(values []string, region string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		normalized := Phone(raw, region)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var countryRegions = map[string]string{
	"thailand":       "TH",
	"thaïlande":      "TH",
	"thailande":      "TH",
	"france":         "FR",
	"united states":  "US",
	"états-unis":     "US",
	"usa":            "US",
	"united kingdom": "GB",
	"royaume-uni":    "GB",
	"uk":             "GB",
	"germany":        "DE",
	"allemagne":      "DE",
	"spain":          "ES",
	"espagne":        "ES",
	"italy":          "IT",
	"italie":         "IT",
	"russia":         "RU",
	"russie":         "RU",
	"china":          "CN",
	"chine":          "CN",
	"japan":          "JP",
	"japon":          "JP",
	"indonesia":      "ID",
	"indonésie":      "ID",
}

// RegionForCountry maps a human country name (English or French spellings)
// to the ISO region used for phone parsing. Unknown countries fall back to
// the default region.
func RegionForCountry(country string) string {
	key := strings.ToLower(strings.TrimSpace(country))
	if region, ok := countryRegions[key]; ok {
		return region
	}
	// Zones like "Expatriés Thaïlande" carry the country inside the label.
	for name, region := range countryRegions {
		if len(name) > 3 && strings.Contains(key, name) {
			return region
		}
	}
	return defaultPhoneRegion
}
