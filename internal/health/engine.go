// Package health estimates PM2.5-attributable mortality with GBD 2019
// integrated exposure-response curves over IHME baselines.
package health

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/airsight/airsight-engine/internal/dataset"
	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

// TMREL is the exposure level below which no excess risk is attributed.
const TMREL = 5.0

type ierParams struct {
	Alpha    float64
	Gamma    float64
	Delta    float64
	Category string
}

// GBD 2019 parameters for RR = 1 + alpha*(1 - exp(-gamma*exposure^delta)).
var ierTable = map[string]ierParams{
	"Ischemic heart disease":                 {0.2969, 0.0133, 1.0, "Cardiovascular"},
	"Stroke":                                 {0.3120, 0.0098, 1.0, "Cardiovascular"},
	"Chronic obstructive pulmonary disease":  {0.2680, 0.0105, 1.0, "Respiratory"},
	"Lower respiratory infections":           {0.3570, 0.0154, 1.0, "Respiratory"},
	"Upper respiratory infections":           {0.1850, 0.0120, 1.0, "Respiratory"},
	"Tracheal, bronchus, and lung cancer":    {0.4050, 0.0185, 1.0, "Cancer"},
	"Larynx cancer":                          {0.3200, 0.0160, 1.0, "Cancer"},
	"Tuberculosis":                           {0.2200, 0.0095, 1.0, "Infectious"},
	"Diabetes mellitus":                      {0.1650, 0.0088, 1.0, "Metabolic"},
	"Asthma":                                 {0.2350, 0.0110, 1.0, "Respiratory"},
}

type ageBand struct {
	Label      string
	Start, End int // inclusive start, exclusive end
	Multiplier float64
}

var ageBands = map[string]ageBand{
	"children": {"Children (0-14)", 0, 15, 1.3},
	"adults":   {"Adults (15-64)", 15, 65, 1.0},
	"elderly":  {"Elderly (65+)", 65, 150, 1.5},
}

var ageNameToStart = map[string]int{
	"<1 year": 0, "1-4 years": 1, "5-9 years": 5, "10-14 years": 10,
	"15-19 years": 15, "20-24 years": 20, "25-29 years": 25, "30-34 years": 30,
	"35-39 years": 35, "40-44 years": 40, "45-49 years": 45, "50-54 years": 50,
	"55-59 years": 55, "60-64 years": 60, "65-69 years": 65, "70-74 years": 70,
	"75-79 years": 75, "80-84 years": 80, "85-89 years": 85, "90-94 years": 90,
	"95+ years": 95,
}

// countryAliases maps dataset names to the IHME/GBD naming convention.
var countryAliases = map[string]string{
	"Vietnam":        "Viet Nam",
	"Laos":           "Lao People's Democratic Republic",
	"Brunei":         "Brunei Darussalam",
	"South Korea":    "Republic of Korea",
	"North Korea":    "Democratic People's Republic of Korea",
	"Iran":           "Iran (Islamic Republic of)",
	"Syria":          "Syrian Arab Republic",
	"Russia":         "Russian Federation",
	"Bolivia":        "Bolivia (Plurinational State of)",
	"Venezuela":      "Venezuela (Bolivarian Republic of)",
	"Tanzania":       "United Republic of Tanzania",
	"Moldova":        "Republic of Moldova",
	"Czech Republic": "Czechia",
	"Ivory Coast":    "Cote d'Ivoire",
	"Congo":          "Democratic Republic of the Congo",
}

func normalizeCountry(name string) string {
	if alias, ok := countryAliases[name]; ok {
		return alias
	}
	return name
}

// Engine computes attributable mortality from a baseline store.
type Engine struct {
	store *dataset.Store
}

// NewEngine wires the engine to the baseline datasets.
func NewEngine(store *dataset.Store) *Engine {
	return &Engine{store: store}
}

// relativeRisk evaluates the IER curve for a disease at a PM2.5 level.
// Unknown diseases and exposures at or below TMREL carry no excess risk.
func relativeRisk(pm25 float64, disease string) (rr, af float64) {
	params, ok := ierTable[disease]
	if !ok {
		return 1.0, 0.0
	}
	exposure := pm25 - TMREL
	if exposure <= 0 {
		return 1.0, 0.0
	}
	rr = 1.0 + params.Alpha*(1-math.Exp(-params.Gamma*math.Pow(exposure, params.Delta)))
	af = 1 - 1/rr
	return utils.Round(rr, 4), utils.Round(af, 4)
}

func ageGroupFor(ageName string) string {
	start, ok := ageNameToStart[ageName]
	if !ok {
		return ""
	}
	for key, band := range ageBands {
		if start >= band.Start && start < band.End {
			return key
		}
	}
	return ""
}

// AQICategory buckets a PM2.5 concentration into the display category.
func AQICategory(pm25 float64) models.AQICategory {
	switch {
	case pm25 < 12:
		return models.AQICategory{Level: "Good", Color: "#4CAF50"}
	case pm25 < 35.5:
		return models.AQICategory{Level: "Moderate", Color: "#FFC107"}
	case pm25 < 55.5:
		return models.AQICategory{Level: "Unhealthy for Sensitive Groups", Color: "#FF9800"}
	case pm25 < 150.5:
		return models.AQICategory{Level: "Unhealthy", Color: "#F44336"}
	case pm25 < 250.5:
		return models.AQICategory{Level: "Very Unhealthy", Color: "#9C27B0"}
	default:
		return models.AQICategory{Level: "Hazardous", Color: "#7B1FA2"}
	}
}

// Calculate estimates attributable deaths for a country at a PM2.5
// level. Age-stratified raw records are preferred; aggregated baselines
// are the fallback.
func (e *Engine) Calculate(country string, pm25 float64, targetYear int) *models.HealthRiskResult {
	result := &models.HealthRiskResult{
		Country:        country,
		TargetYear:     targetYear,
		PM25Level:      pm25,
		ExcessExposure: utils.Round(math.Max(0, pm25-TMREL), 2),
		TMREL:          TMREL,
		AQI:            AQICategory(pm25),
		Diseases:       []models.DiseaseImpact{},
		AgeGroups:      []models.AgeGroupImpact{},
	}

	norm := normalizeCountry(country)
	records := e.store.RawRecords(country, norm)
	if len(records) > 0 {
		e.calcAgeStratified(result, records, pm25, targetYear)
	} else {
		e.calcAggregated(result, country, norm, pm25, targetYear)
	}
	return result
}

func (e *Engine) calcAgeStratified(result *models.HealthRiskResult, records []dataset.MortalityRecord, pm25 float64, targetYear int) {
	closest := 0
	bestDist := 1 << 30
	for _, rec := range records {
		dist := rec.Year - targetYear
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist || (dist == bestDist && rec.Year < closest) {
			closest = rec.Year
			bestDist = dist
		}
	}

	type ageTotal struct {
		label                string
		deaths, upper, lower float64
		vulnerability        float64
	}
	type diseaseTotal struct {
		category             string
		baseline, attributed float64
		upper, lower         float64
		rr, af               float64
	}
	ageTotals := map[string]*ageTotal{}
	diseaseTotals := map[string]*diseaseTotal{}
	var diseaseOrder []string

	for _, rec := range records {
		if rec.Year != closest || rec.MeasureName != "Deaths" {
			continue
		}
		group := ageGroupFor(rec.AgeName)
		if group == "" || rec.CauseName == "" {
			continue
		}

		rr, af := relativeRisk(pm25, rec.CauseName)
		band := ageBands[group]
		adjAF := math.Min(af*band.Multiplier, 0.95)

		attr := rec.Val * adjAF
		attrUpper := rec.Upper * adjAF
		attrLower := rec.Lower * adjAF

		at, ok := ageTotals[group]
		if !ok {
			at = &ageTotal{label: band.Label, vulnerability: band.Multiplier}
			ageTotals[group] = at
		}
		at.deaths += attr
		at.upper += attrUpper
		at.lower += attrLower

		dt, ok := diseaseTotals[rec.CauseName]
		if !ok {
			category := "Other"
			if params, ok := ierTable[rec.CauseName]; ok {
				category = params.Category
			}
			dt = &diseaseTotal{category: category, rr: rr, af: af}
			diseaseTotals[rec.CauseName] = dt
			diseaseOrder = append(diseaseOrder, rec.CauseName)
		}
		dt.baseline += rec.Val
		dt.attributed += attr
		dt.upper += attrUpper
		dt.lower += attrLower
	}

	sort.SliceStable(diseaseOrder, func(i, j int) bool {
		return diseaseTotals[diseaseOrder[i]].attributed > diseaseTotals[diseaseOrder[j]].attributed
	})
	for _, name := range diseaseOrder {
		dt := diseaseTotals[name]
		result.Diseases = append(result.Diseases, models.DiseaseImpact{
			Disease:              name,
			Category:             dt.category,
			AttributedDeaths:     utils.Round(dt.attributed, 1),
			CILower:              utils.Round(dt.lower, 1),
			CIUpper:              utils.Round(dt.upper, 1),
			BaselineDeaths:       utils.Round(dt.baseline, 1),
			RelativeRisk:         dt.rr,
			AttributableFraction: dt.af,
		})
	}

	total, totalLower, totalUpper := 0.0, 0.0, 0.0
	groups := make([]string, 0, len(ageTotals))
	for key, at := range ageTotals {
		total += at.deaths
		totalLower += at.lower
		totalUpper += at.upper
		groups = append(groups, key)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return ageTotals[groups[i]].deaths > ageTotals[groups[j]].deaths
	})
	for _, key := range groups {
		at := ageTotals[key]
		pct := 0.0
		if total > 0 {
			pct = at.deaths / total * 100
		}
		result.AgeGroups = append(result.AgeGroups, models.AgeGroupImpact{
			AgeGroup:         at.label,
			AttributedDeaths: utils.Round(at.deaths, 1),
			CILower:          utils.Round(at.lower, 1),
			CIUpper:          utils.Round(at.upper, 1),
			Percentage:       utils.Round(pct, 1),
			Vulnerability:    at.vulnerability,
		})
	}

	result.TotalDeaths = utils.Round(total, 0)
	result.TotalCILower = utils.Round(totalLower, 0)
	result.TotalCIUpper = utils.Round(totalUpper, 0)
	result.DataNote = fmt.Sprintf("Age-stratified (IHME baseline year: %d)", closest)
}

func (e *Engine) calcAggregated(result *models.HealthRiskResult, country, norm string, pm25 float64, targetYear int) {
	baseline, ok := e.store.BaselineForYear(country, targetYear)
	if !ok {
		baseline, ok = e.store.BaselineForYear(norm, targetYear)
	}
	if !ok {
		countryLower := strings.ToLower(country)
		normLower := strings.ToLower(norm)
		for _, name := range e.store.BaselineCountries() {
			nameLower := strings.ToLower(name)
			if substringEither(nameLower, countryLower) || substringEither(nameLower, normLower) {
				if baseline, ok = e.store.BaselineForYear(name, targetYear); ok {
					break
				}
			}
		}
	}
	if !ok {
		for _, key := range []string{country, norm} {
			if b, _, found := e.store.BaselineNearestYear(key, targetYear); found {
				baseline, ok = b, true
				break
			}
		}
	}
	if !ok {
		result.DataNote = "No health baseline data available"
		return
	}

	names := make([]string, 0, len(baseline))
	for name := range baseline {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		deaths := baseline[name]
		rr, af := relativeRisk(pm25, name)
		if af <= 0 {
			continue
		}
		attr := deaths * af
		total += attr
		category := "Other"
		if params, ok := ierTable[name]; ok {
			category = params.Category
		}
		result.Diseases = append(result.Diseases, models.DiseaseImpact{
			Disease:              name,
			Category:             category,
			AttributedDeaths:     utils.Round(attr, 1),
			CILower:              utils.Round(attr*0.6, 1),
			CIUpper:              utils.Round(attr*1.5, 1),
			BaselineDeaths:       utils.Round(deaths, 1),
			RelativeRisk:         rr,
			AttributableFraction: af,
		})
	}

	sort.SliceStable(result.Diseases, func(i, j int) bool {
		return result.Diseases[i].AttributedDeaths > result.Diseases[j].AttributedDeaths
	})
	result.TotalDeaths = utils.Round(total, 0)
	result.TotalCILower = utils.Round(total*0.6, 0)
	result.TotalCIUpper = utils.Round(total*1.5, 0)
	result.DataNote = "Aggregated baseline (no age stratification)"
}

func substringEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// CalculateFiltered narrows a full calculation to an age group and/or a
// disease substring.
func (e *Engine) CalculateFiltered(country string, pm25 float64, targetYear int, ageGroup, diseaseFilter string) *models.HealthRiskResult {
	result := e.Calculate(country, pm25, targetYear)

	if ageGroup != "" {
		if band, ok := ageBands[ageGroup]; ok && len(result.AgeGroups) > 0 {
			var matched []models.AgeGroupImpact
			for _, ag := range result.AgeGroups {
				if ag.AgeGroup == band.Label {
					matched = append(matched, ag)
				}
			}
			result.AgeGroups = matched
			result.FilterApplied = "Age group: " + band.Label
			if len(matched) > 0 {
				result.FilteredDeaths = &matched[0].AttributedDeaths
				result.FilteredCILower = &matched[0].CILower
				result.FilteredCIUpper = &matched[0].CIUpper
			}
		}
	}

	if diseaseFilter != "" {
		lower := strings.ToLower(diseaseFilter)
		var matched []models.DiseaseImpact
		for _, d := range result.Diseases {
			if strings.Contains(strings.ToLower(d.Disease), lower) {
				matched = append(matched, d)
			}
		}
		if len(matched) > 0 {
			result.Diseases = matched
			result.FilterApplied = strings.TrimSpace(result.FilterApplied + " Disease: " + diseaseFilter)
		}
	}

	return result
}

// Countries lists every country with aggregated baseline data.
func (e *Engine) Countries() []string {
	return e.store.BaselineCountries()
}

// MatchCountry resolves user input to a baseline country name, exact
// match first, then bidirectional substring.
func (e *Engine) MatchCountry(query string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(query))
	names := e.store.BaselineCountries()
	for _, name := range names {
		if strings.ToLower(name) == lower {
			return name, true
		}
	}
	for _, name := range names {
		if substringEither(strings.ToLower(name), lower) {
			return name, true
		}
	}
	return "", false
}
