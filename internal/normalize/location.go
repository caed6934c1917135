package normalize

import "strings"

// provinceAliases maps well-known city and resort names to the canonical
// province they belong to.
var provinceAliases = map[string]string{
	"bangkok":             "Bangkok",
	"chiang mai":          "Chiang Mai",
	"phuket":              "Phuket",
	"chonburi":            "Chonburi",
	"pattaya":             "Chonburi",
	"prachuap khiri khan": "Prachuap Khiri Khan",
	"hua hin":             "Prachuap Khiri Khan",
	"surat thani":         "Surat Thani",
	"koh samui":           "Surat Thani",
	"samui":               "Surat Thani",
	"khon kaen":           "Khon Kaen",
	"udon thani":          "Udon Thani",
}

// Location maps known city aliases to canonical province names.
// Unmapped input passes through unchanged.
func Location(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	key := Name(trimmed)
	if key == "" {
		key = strings.ToLower(trimmed)
	}
	if province, ok := provinceAliases[key]; ok {
		return province
	}
	for alias, province := range provinceAliases {
		if strings.Contains(key, alias) {
			return province
		}
	}
	return trimmed
}
