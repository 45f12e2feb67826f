// Package resolver maps free-text region and country mentions onto the
// canonical names used by the datasets.
package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CountrySynonyms normalises variant country spellings to the canonical
// names carried in the PM2.5 history dataset.
var CountrySynonyms = map[string]string{
	"Viet Nam":                              "Vietnam",
	"Lao PDR":                               "Laos",
	"Lao People's Dem. Rep.":                "Laos",
	"Czechia":                               "Czech Republic",
	"Korea, Republic of":                    "South Korea",
	"Russian Federation":                    "Russia",
	"Moldova, Republic of":                  "Moldova",
	"Macedonia, The former Yugoslav Rep. of": "Macedonia",
	"Sudan, The Republic of":                "Sudan",
	"Congo, Democratic Republic of the":     "Democratic Republic of the Congo",
	"Hong Kong, China":                      "Hong Kong",
	"Taiwan, China":                         "Taiwan",
	"Serbia and Montenegro":                 "Serbia",
	"European Union":                        "EU",
	"USA":                                   "United States",
	"UK":                                    "United Kingdom",
	"UAE":                                   "United Arab Emirates",
}

// CanonicalCountry applies synonym normalisation to a country name.
func CanonicalCountry(name string) string {
	if canonical, ok := CountrySynonyms[name]; ok {
		return canonical
	}
	return name
}

// RegionCountries maps canonical region names to member countries.
var RegionCountries = map[string][]string{
	"ASEAN": {
		"Brunei", "Cambodia", "Indonesia", "Laos", "Malaysia",
		"Myanmar", "Philippines", "Singapore", "Thailand", "Vietnam",
		"Timor-Leste",
	},
	"South Asia": {
		"Afghanistan", "Bangladesh", "Bhutan", "India", "Maldives",
		"Nepal", "Pakistan", "Sri Lanka",
	},
	"East Asia": {
		"China", "Japan", "South Korea", "North Korea",
		"Mongolia", "Taiwan", "Hong Kong", "Macao",
	},
	"Southeast Asia": {
		"Brunei", "Cambodia", "Indonesia", "Laos", "Malaysia",
		"Myanmar", "Philippines", "Singapore", "Thailand", "Vietnam",
		"Timor-Leste",
	},
	"Europe": {
		"Albania", "Andorra", "Austria", "Belarus", "Belgium",
		"Bosnia and Herzegovina", "Bulgaria", "Croatia", "Cyprus",
		"Czech Republic", "Denmark", "Estonia", "Finland", "France",
		"Germany", "Greece", "Hungary", "Iceland", "Ireland", "Italy",
		"Kosovo", "Latvia", "Liechtenstein", "Lithuania", "Luxembourg",
		"Macedonia", "Malta", "Moldova", "Monaco", "Montenegro",
		"Netherlands", "Norway", "Poland", "Portugal", "Romania",
		"Russia", "San Marino", "Serbia", "Slovakia", "Slovenia",
		"Spain", "Sweden", "Switzerland", "Turkey", "Ukraine",
		"United Kingdom", "Vatican City",
	},
	"Africa": {
		"Algeria", "Angola", "Benin", "Botswana", "Burkina Faso",
		"Burundi", "Cameroon", "Cape Verde", "Central African Republic",
		"Chad", "Comoros", "Democratic Republic of the Congo",
		"Republic of Congo", "Djibouti", "Egypt", "Equatorial Guinea",
		"Eritrea", "Ethiopia", "Gabon", "Gambia", "Ghana", "Guinea",
		"Guinea-Bissau", "Kenya", "Lesotho", "Liberia", "Libya",
		"Madagascar", "Malawi", "Mali", "Mauritania", "Mauritius",
		"Morocco", "Mozambique", "Namibia", "Niger", "Nigeria",
		"Rwanda", "Senegal", "Seychelles", "Sierra Leone", "Somalia",
		"South Africa", "South Sudan", "Sudan", "Swaziland",
		"Tanzania", "Togo", "Tunisia", "Uganda", "Zambia", "Zimbabwe",
	},
	"North America": {
		"Canada", "United States", "Mexico",
	},
	"South America": {
		"Argentina", "Bolivia", "Brazil", "Chile", "Colombia",
		"Ecuador", "Guyana", "Paraguay", "Peru", "Suriname",
		"Uruguay", "Venezuela",
	},
	"Central America": {
		"Belize", "Costa Rica", "El Salvador", "Guatemala",
		"Honduras", "Nicaragua", "Panama",
	},
	"Caribbean": {
		"Bahamas", "Barbados", "Cuba", "Dominica",
		"Dominican Republic", "Grenada", "Haiti", "Jamaica",
		"Saint Kitts and Nevis", "Saint Lucia",
		"Saint Vincent and the Grenadines",
		"Trinidad and Tobago",
	},
	"Middle East": {
		"Bahrain", "Iran", "Iraq", "Israel", "Jordan", "Kuwait",
		"Lebanon", "Oman", "Qatar", "Saudi Arabia", "Syria",
		"United Arab Emirates", "Yemen",
	},
	"Central Asia": {
		"Kazakhstan", "Kyrgyzstan", "Tajikistan", "Turkmenistan",
		"Uzbekistan",
	},
	"Oceania": {
		"Australia", "Fiji", "Kiribati", "Marshall Islands",
		"Micronesia", "Nauru", "New Zealand", "Palau",
		"Papua New Guinea", "Samoa", "Solomon Islands", "Tonga",
		"Tuvalu", "Vanuatu",
	},
}

type regionPattern struct {
	re   *regexp.Regexp
	name string
}

// Ordered, more specific patterns first.
var regionPatterns = []regionPattern{
	{regexp.MustCompile(`\basean\b`), "ASEAN"},
	{regexp.MustCompile(`\bsoutheast\s+asia(?:n)?\b`), "ASEAN"},
	{regexp.MustCompile(`\bsouth\s+asia(?:n)?\b`), "South Asia"},
	{regexp.MustCompile(`\beast\s+asia(?:n)?\b`), "East Asia"},
	{regexp.MustCompile(`\bcentral\s+asia(?:n)?\b`), "Central Asia"},
	{regexp.MustCompile(`\beurop(?:e|ean)\b`), "Europe"},
	{regexp.MustCompile(`\b(?:eu|european\s+union)\b`), "Europe"},
	{regexp.MustCompile(`\bafric(?:a|an)\b`), "Africa"},
	{regexp.MustCompile(`\bnorth\s+americ(?:a|an)\b`), "North America"},
	{regexp.MustCompile(`\bsouth\s+americ(?:a|an)\b`), "South America"},
	{regexp.MustCompile(`\bcentral\s+americ(?:a|an)\b`), "Central America"},
	{regexp.MustCompile(`\blatin\s+americ(?:a|an)\b`), "South America"},
	{regexp.MustCompile(`\bmiddle\s+east(?:ern)?\b`), "Middle East"},
	{regexp.MustCompile(`\boceani(?:a|an)\b`), "Oceania"},
	{regexp.MustCompile(`\bcaribbean\b`), "Caribbean"},
	{regexp.MustCompile(`\bglobal(?:ly)?\b`), "Global"},
	{regexp.MustCompile(`\bworld\s*wide\b`), "Global"},
	{regexp.MustCompile(`\ball\s+countr`), "Global"},
	{regexp.MustCompile(`\bantarctic(?:a|an)?\b`), "Antarctica"},
	{regexp.MustCompile(`\barctic\b`), "Arctic"},
}

// NormalizeRegion parses free-text and returns the canonical region
// name, or "" when no region is mentioned.
func NormalizeRegion(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rp := range regionPatterns {
		if rp.re.MatchString(lower) {
			return rp.name
		}
	}
	return ""
}

// Resolution is the outcome of projecting a region onto the dataset.
type Resolution struct {
	OK        bool     `json:"ok"`
	Region    string   `json:"region"`
	Countries []string `json:"countries"`
	Error     string   `json:"error,omitempty"`
}

// Resolve projects a region name onto the set of countries we hold data
// for. An empty region or "Global" yields every available country.
func Resolve(region string, available []string) Resolution {
	if region == "" || region == "Global" {
		countries := append([]string(nil), available...)
		sort.Strings(countries)
		return Resolution{OK: true, Region: "Global", Countries: countries}
	}

	members, ok := RegionCountries[region]
	if !ok {
		supported := make([]string, 0, len(RegionCountries))
		for name := range RegionCountries {
			supported = append(supported, name)
		}
		sort.Strings(supported)
		return Resolution{
			Region:    region,
			Countries: []string{},
			Error: fmt.Sprintf("'%s' is not a recognised region in our system.\nSupported regions: %s",
				region, strings.Join(supported, ", ")),
		}
	}

	availSet := make(map[string]struct{}, len(available))
	for _, c := range available {
		availSet[c] = struct{}{}
	}
	var matched []string
	for _, c := range members {
		if _, ok := availSet[c]; ok {
			matched = append(matched, c)
		}
	}
	sort.Strings(matched)
	if len(matched) == 0 {
		return Resolution{
			Region:    region,
			Countries: []string{},
			Error: fmt.Sprintf("No pollution data is available for any country in %s.\nOur dataset covers %d countries; none match the %s region list.",
				region, len(available), region),
		}
	}
	return Resolution{OK: true, Region: region, Countries: matched}
}
