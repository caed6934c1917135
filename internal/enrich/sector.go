package enrich

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/normalize"
)

var cityTitle = cases.Title(language.English)

// sector is one bucket of the keyword taxonomy. Terms score 1 each;
// matching the run's profession against the hints scores 2.
type sector struct {
	name        string
	terms       []string
	professions []string
}

var sectorTaxonomy = []sector{
	{
		name:        "legal",
		terms:       []string{"lawyer", "avocat", "law firm", "legal", "juridique", "notaire", "notary", "visa", "attorney", "solicitor"},
		professions: []string{"lawyer", "avocat", "notaire"},
	},
	{
		name:        "humanitarian",
		terms:       []string{"ngo", "ong", "association", "charity", "fondation", "foundation", "humanitarian", "humanitaire", "volunteer", "bénévole"},
		professions: []string{"association", "ngo"},
	},
	{
		name:        "digital",
		terms:       []string{"web", "digital", "software", "développeur", "developer", "agency", "agence", "seo", "marketing", "startup", "informatique"},
		professions: []string{"developer", "nomad", "freelance"},
	},
	{
		name:        "food-service",
		terms:       []string{"restaurant", "café", "cafe", "bar", "cuisine", "food", "catering", "traiteur", "boulangerie", "bakery", "bistro"},
		professions: []string{"restaurant", "chef"},
	},
	{
		name:        "tourism",
		terms:       []string{"hotel", "hôtel", "tour", "travel", "voyage", "guesthouse", "resort", "tourism", "tourisme", "excursion", "diving"},
		professions: []string{"hotel", "guide", "travel"},
	},
}

const sectorScoreThreshold = 2

// DetectSectors classifies text against the sector taxonomy, strongest
// match first. Returns nil when nothing clears the threshold.
func DetectSectors(text, profession string) []string {
	lower := strings.ToLower(text)
	prof := strings.ToLower(strings.TrimSpace(profession))

	type scored struct {
		name  string
		score int
	}
	var matches []scored
	for _, s := range sectorTaxonomy {
		score := 0
		for _, term := range s.terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if prof != "" {
			for _, hint := range s.professions {
				if strings.Contains(prof, hint) {
					score += 2
					break
				}
			}
		}
		if score >= sectorScoreThreshold {
			matches = append(matches, scored{s.name, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var (
	thaiPostalRe   = regexp.MustCompile(`\b[1-9][0-9]{4}\b`)
	frenchPostalRe = regexp.MustCompile(`\b(?:0[1-9]|[1-8][0-9]|9[0-5])[0-9]{3}\b`)
)

var thaiCities = []string{
	"bangkok", "chiang mai", "phuket", "pattaya", "hua hin",
	"koh samui", "samui", "chonburi", "krabi", "khon kaen", "udon thani",
}

var frenchCities = []string{
	"paris", "lyon", "marseille", "toulouse", "bordeaux", "nice", "nantes",
}

// enrichGeographic scans the entry text for known cities and postal codes
// of the entry's country and fills City/Province/Address without touching
// values already set.
func enrichGeographic(e *entity.OrganizationEntry, text string) {
	lower := strings.ToLower(text)
	cl := strings.ToLower(e.Country)

	var cities []string
	var postalRe *regexp.Regexp
	switch {
	case strings.Contains(cl, "france"):
		cities, postalRe = frenchCities, frenchPostalRe
	default:
		cities, postalRe = thaiCities, thaiPostalRe
	}

	for _, city := range cities {
		if strings.Contains(lower, city) {
			fillFirst(&e.City, cityTitle.String(city))
			fillFirst(&e.Province, normalize.Location(city))
			break
		}
	}
	if postal := postalRe.FindString(text); postal != "" && e.Address == "" {
		e.Address = postal
	}
}
