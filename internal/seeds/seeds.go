// Package seeds maps a profession to its starting points: directory sources
// with category URLs, plus search-query templates for the discovery step.
// A profession without a dedicated provider falls back to the generic one.
package seeds

import (
	"strings"

	"github.com/octobees/orgscout/internal/entity"
)

// Provider supplies seed material for one profession. Sources returns
// directory descriptors to parse directly; Queries returns search-engine
// query strings for the discovery step when sources alone are too thin.
type Provider interface {
	Sources(country string) []entity.SourceDescriptor
	Queries(country, language, keywords string) []string
}

// registry is fixed at compile time. The profession key is matched
// case-insensitively with a few spelling variants folded in.
var registry = map[string]Provider{
	"lawyer":      lawyerProvider{},
	"avocat":      lawyerProvider{},
	"translator":  translatorProvider{},
	"interprète":  translatorProvider{},
	"association": associationProvider{},
	"nomad":       nomadProvider{},
	"restaurant":  restaurantProvider{},
	"hotel":       hotelProvider{},
	"hôtelier":    hotelProvider{},
	"youtuber":    youtubeProvider{},
}

// ForProfession resolves the provider for a profession label, falling back
// to the generic provider.
func ForProfession(profession string) Provider {
	key := strings.ToLower(strings.TrimSpace(profession))
	for name, p := range registry {
		if strings.Contains(key, name) {
			return p
		}
	}
	return genericProvider{}
}

func isThailand(country string) bool {
	cl := strings.ToLower(country)
	return strings.Contains(cl, "thailand") || strings.Contains(cl, "thaïlande") || strings.Contains(cl, "thailande")
}

// thaiDirectory is the shared expat-directory source for Thailand-focused
// runs; its category pages paginate with the numbered-subpath style.
func thaiDirectory() entity.SourceDescriptor {
	return entity.SourceDescriptor{
		Name:    "Annuaire Thailand Guide",
		BaseURL: "https://annuaire.thailande-guide.com",
		Categories: []entity.SourceCategory{
			{Name: "associations", URL: "https://annuaire.thailande-guide.com/fr/cat-61/"},
			{Name: "services", URL: "https://annuaire.thailande-guide.com/fr/cat-28/"},
			{Name: "clubs", URL: "https://annuaire.thailande-guide.com/fr/cat-120/"},
		},
	}
}

func expand(templates []string, country, keywords string) []string {
	out := make([]string, 0, len(templates))
	seen := make(map[string]struct{}, len(templates))
	for _, tmpl := range templates {
		q := strings.ReplaceAll(tmpl, "{country}", country)
		q = strings.ReplaceAll(q, "{keywords}", keywords)
		q = strings.Join(strings.Fields(q), " ")
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

type genericProvider struct{}

func (genericProvider) Sources(country string) []entity.SourceDescriptor {
	if isThailand(country) {
		return []entity.SourceDescriptor{thaiDirectory()}
	}
	return nil
}

func (genericProvider) Queries(country, language, keywords string) []string {
	return expand([]string{
		"expat directory {country} {keywords}",
		"expat services {country} contact",
	}, country, keywords)
}

type lawyerProvider struct{}

func (lawyerProvider) Sources(country string) []entity.SourceDescriptor {
	sources := []entity.SourceDescriptor{{
		Name: "Thai law portals",
		DirectURLs: []string{
			"https://www.thailawonline.com/",
			"https://www.lawyerscouncil.or.th/",
		},
	}}
	if isThailand(country) {
		sources = append(sources, thaiDirectory())
	}
	return sources
}

func (lawyerProvider) Queries(country, language, keywords string) []string {
	switch strings.ToLower(language) {
	case "fr":
		return expand([]string{"avocat étrangers {country} {keywords}"}, country, keywords)
	case "en":
		return expand([]string{"lawyer for expats {country} {keywords}"}, country, keywords)
	default:
		return expand([]string{"lawyer {country} {keywords}"}, country, keywords)
	}
}

type translatorProvider struct{}

func (translatorProvider) Sources(country string) []entity.SourceDescriptor {
	if isThailand(country) {
		return []entity.SourceDescriptor{thaiDirectory()}
	}
	return nil
}

func (translatorProvider) Queries(country, language, keywords string) []string {
	if strings.EqualFold(language, "fr") {
		return expand([]string{"traducteur assermenté {country} {keywords}"}, country, keywords)
	}
	return expand([]string{"certified translator {country} {keywords}"}, country, keywords)
}

type associationProvider struct{}

func (associationProvider) Sources(country string) []entity.SourceDescriptor {
	sources := []entity.SourceDescriptor{{
		Name: "Expat community hubs",
		DirectURLs: []string{
			"https://www.britishcouncil.or.th/en",
			"https://www.alliancefr.org/en",
			"https://www.goethe.de/ins/th/en/index.html",
		},
	}}
	if isThailand(country) {
		sources = append(sources, entity.SourceDescriptor{
			Name: "Thai official registries",
			DirectURLs: []string{
				"https://www.mfa.go.th/en/content/associations-1",
				"https://www.thailand.go.th/",
			},
		}, thaiDirectory())
	}
	return sources
}

func (associationProvider) Queries(country, language, keywords string) []string {
	switch strings.ToLower(language) {
	case "fr":
		return expand([]string{
			"association expatriés {country}",
			"entraide expatriés {country}",
		}, country, keywords)
	default:
		return expand([]string{
			"expat association {country}",
			"foreigner community {country}",
			"ngo helping expats {country}",
		}, country, keywords)
	}
}

type nomadProvider struct{}

func (nomadProvider) Sources(country string) []entity.SourceDescriptor {
	return []entity.SourceDescriptor{{
		Name: "Nomad hubs",
		DirectURLs: []string{
			"https://nomadlist.com/",
			"https://www.coworker.com/search/thailand",
		},
	}}
}

func (nomadProvider) Queries(country, language, keywords string) []string {
	return expand([]string{
		"digital nomad community {country} {keywords}",
		"coworking space {country} contact",
	}, country, keywords)
}

type restaurantProvider struct{}

func (restaurantProvider) Sources(country string) []entity.SourceDescriptor {
	if isThailand(country) {
		return []entity.SourceDescriptor{thaiDirectory()}
	}
	return nil
}

func (restaurantProvider) Queries(country, language, keywords string) []string {
	if strings.EqualFold(language, "fr") {
		return expand([]string{"restaurant français {country} {keywords}"}, country, keywords)
	}
	return expand([]string{"expat restaurant owner {country} {keywords}"}, country, keywords)
}

type hotelProvider struct{}

func (hotelProvider) Sources(country string) []entity.SourceDescriptor { return nil }

func (hotelProvider) Queries(country, language, keywords string) []string {
	return expand([]string{
		"hotel associations {country}",
		"expat hoteliers {country} {keywords}",
	}, country, keywords)
}

type youtubeProvider struct{}

func (youtubeProvider) Sources(country string) []entity.SourceDescriptor { return nil }

func (youtubeProvider) Queries(country, language, keywords string) []string {
	return expand([]string{
		"youtube channel expat {country} {keywords}",
		"vlogger living in {country} contact",
	}, country, keywords)
}
