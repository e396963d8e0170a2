package ingest

import "strings"

// OtherRegionGroup is assigned to regions missing from the catalog
const OtherRegionGroup = "Other"

// World Bank regional groupings
const (
	GroupEastAsiaPacific       = "East Asia & Pacific"
	GroupEuropeCentralAsia     = "Europe & Central Asia"
	GroupLatinAmerica          = "Latin America & Caribbean"
	GroupMiddleEastNorthAfrica = "Middle East & North Africa"
	GroupNorthAmerica          = "North America"
	GroupSouthAsia             = "South Asia"
	GroupSubSaharanAfrica      = "Sub-Saharan Africa"
)

// Country is a catalog entry. NumericCode is the ISO 3166-1 numeric code
// used as the feature id of the world topology drawn by the choropleth.
type Country struct {
	Code        string
	Name        string
	Group       string
	NumericCode int
}

var countries = []Country{
	{"CHN", "China", GroupEastAsiaPacific, 156},
	{"JPN", "Japan", GroupEastAsiaPacific, 392},
	{"KOR", "Korea, Rep.", GroupEastAsiaPacific, 410},
	{"AUS", "Australia", GroupEastAsiaPacific, 36},
	{"IDN", "Indonesia", GroupEastAsiaPacific, 360},
	{"THA", "Thailand", GroupEastAsiaPacific, 764},
	{"VNM", "Viet Nam", GroupEastAsiaPacific, 704},
	{"MYS", "Malaysia", GroupEastAsiaPacific, 458},
	{"PHL", "Philippines", GroupEastAsiaPacific, 608},
	{"NZL", "New Zealand", GroupEastAsiaPacific, 554},

	{"DEU", "Germany", GroupEuropeCentralAsia, 276},
	{"FRA", "France", GroupEuropeCentralAsia, 250},
	{"GBR", "United Kingdom", GroupEuropeCentralAsia, 826},
	{"ITA", "Italy", GroupEuropeCentralAsia, 380},
	{"ESP", "Spain", GroupEuropeCentralAsia, 724},
	{"POL", "Poland", GroupEuropeCentralAsia, 616},
	{"NLD", "Netherlands", GroupEuropeCentralAsia, 528},
	{"TUR", "Turkiye", GroupEuropeCentralAsia, 792},
	{"RUS", "Russian Federation", GroupEuropeCentralAsia, 643},
	{"UKR", "Ukraine", GroupEuropeCentralAsia, 804},

	{"BRA", "Brazil", GroupLatinAmerica, 76},
	{"MEX", "Mexico", GroupLatinAmerica, 484},
	{"ARG", "Argentina", GroupLatinAmerica, 32},
	{"COL", "Colombia", GroupLatinAmerica, 170},
	{"CHL", "Chile", GroupLatinAmerica, 152},
	{"PER", "Peru", GroupLatinAmerica, 604},
	{"VEN", "Venezuela, RB", GroupLatinAmerica, 862},

	{"EGY", "Egypt, Arab Rep.", GroupMiddleEastNorthAfrica, 818},
	{"SAU", "Saudi Arabia", GroupMiddleEastNorthAfrica, 682},
	{"IRN", "Iran, Islamic Rep.", GroupMiddleEastNorthAfrica, 364},
	{"IRQ", "Iraq", GroupMiddleEastNorthAfrica, 368},
	{"MAR", "Morocco", GroupMiddleEastNorthAfrica, 504},
	{"DZA", "Algeria", GroupMiddleEastNorthAfrica, 12},

	{"USA", "United States", GroupNorthAmerica, 840},
	{"CAN", "Canada", GroupNorthAmerica, 124},

	{"IND", "India", GroupSouthAsia, 356},
	{"PAK", "Pakistan", GroupSouthAsia, 586},
	{"BGD", "Bangladesh", GroupSouthAsia, 50},
	{"LKA", "Sri Lanka", GroupSouthAsia, 144},
	{"NPL", "Nepal", GroupSouthAsia, 524},

	{"NGA", "Nigeria", GroupSubSaharanAfrica, 566},
	{"ZAF", "South Africa", GroupSubSaharanAfrica, 710},
	{"KEN", "Kenya", GroupSubSaharanAfrica, 404},
	{"ETH", "Ethiopia", GroupSubSaharanAfrica, 231},
	{"GHA", "Ghana", GroupSubSaharanAfrica, 288},
	{"TZA", "Tanzania", GroupSubSaharanAfrica, 834},
}

var (
	byCode = make(map[string]Country, len(countries))
	byName = make(map[string]Country, len(countries))
)

func init() {
	for _, c := range countries {
		byCode[c.Code] = c
		byName[strings.ToLower(c.Name)] = c
	}
	// Common alternate spellings found in BLS and ILO files
	for alias, code := range map[string]string{
		"united states of america":    "USA",
		"u.s.":                        "USA",
		"us":                          "USA",
		"korea, republic of":          "KOR",
		"south korea":                 "KOR",
		"russia":                      "RUS",
		"turkey":                      "TUR",
		"vietnam":                     "VNM",
		"egypt":                       "EGY",
		"iran":                        "IRN",
		"venezuela":                   "VEN",
		"united republic of tanzania": "TZA",
		"uk":                          "GBR",
	} {
		byName[alias] = byCode[code]
	}
}

// LookupRegion resolves a region code or display name against the catalog
func LookupRegion(codeOrName string) (Country, bool) {
	key := strings.TrimSpace(codeOrName)
	if c, ok := byCode[strings.ToUpper(key)]; ok {
		return c, true
	}
	c, ok := byName[strings.ToLower(key)]
	return c, ok
}

// RegionGroup returns the World Bank region of an ISO3 code, or "Other"
func RegionGroup(code string) string {
	if c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c.Group
	}
	return OtherRegionGroup
}

// NumericCode returns the ISO 3166-1 numeric code of a country, catalogued
// or not. Aggregates such as WLD or LCN have none.
func NumericCode(code string) (int, bool) {
	n, ok := isoNumeric[strings.ToUpper(strings.TrimSpace(code))]
	return n, ok
}

// Countries returns a copy of the catalog
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}
