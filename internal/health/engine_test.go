package health

import (
	"strings"
	"testing"

	"github.com/airsight/airsight-engine/internal/dataset"
)

func testBaselines() map[string]map[int]map[string]float64 {
	return map[string]map[int]map[string]float64{
		"Myanmar": {
			2021: {
				"Stroke":                 48000,
				"Ischemic heart disease": 52000,
				"Lower respiratory infections": 31000,
			},
			2019: {
				"Stroke": 46000,
			},
		},
		"Viet Nam": {
			2021: {
				"Stroke": 90000,
			},
		},
		"Lao People's Democratic Republic": {
			2021: {
				"Stroke": 8000,
			},
		},
	}
}

func newAggregatedEngine() *Engine {
	store := dataset.NewStore(nil, testBaselines(), nil)
	return NewEngine(store)
}

func TestRelativeRiskBelowFloor(t *testing.T) {
	rr, af := relativeRisk(5.0, "Stroke")
	if rr != 1.0 || af != 0.0 {
		t.Fatalf("exposure at floor should carry no risk, got rr=%v af=%v", rr, af)
	}
	rr, af = relativeRisk(3.0, "Stroke")
	if rr != 1.0 || af != 0.0 {
		t.Fatalf("exposure below floor should carry no risk, got rr=%v af=%v", rr, af)
	}
}

func TestRelativeRiskUnknownDisease(t *testing.T) {
	rr, af := relativeRisk(80.0, "Appendicitis")
	if rr != 1.0 || af != 0.0 {
		t.Fatalf("unknown disease should carry no risk, got rr=%v af=%v", rr, af)
	}
}

func TestRelativeRiskMonotonic(t *testing.T) {
	_, afLow := relativeRisk(15.0, "Stroke")
	_, afHigh := relativeRisk(60.0, "Stroke")
	if afLow <= 0 {
		t.Fatalf("expected positive attributable fraction, got %v", afLow)
	}
	if afHigh <= afLow {
		t.Fatalf("fraction should grow with exposure: %v vs %v", afLow, afHigh)
	}
	if afHigh >= 0.95 {
		t.Fatalf("fraction out of range: %v", afHigh)
	}
}

func TestAQICategoryTiers(t *testing.T) {
	cases := []struct {
		pm25  float64
		level string
	}{
		{8.0, "Good"},
		{20.0, "Moderate"},
		{40.0, "Unhealthy for Sensitive Groups"},
		{100.0, "Unhealthy"},
		{200.0, "Very Unhealthy"},
		{300.0, "Hazardous"},
	}
	for _, tc := range cases {
		if got := AQICategory(tc.pm25); got.Level != tc.level {
			t.Fatalf("pm25 %.1f: expected %q, got %q", tc.pm25, tc.level, got.Level)
		}
	}
}

func TestCalculateAggregated(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.Calculate("Myanmar", 28.0, 2021)
	if result.DataNote != "Aggregated baseline (no age stratification)" {
		t.Fatalf("unexpected data note %q", result.DataNote)
	}
	if result.ExcessExposure != 23.0 {
		t.Fatalf("expected excess exposure 23.0, got %v", result.ExcessExposure)
	}
	if len(result.Diseases) != 3 {
		t.Fatalf("expected 3 disease rows, got %d", len(result.Diseases))
	}
	for i := 1; i < len(result.Diseases); i++ {
		if result.Diseases[i].AttributedDeaths > result.Diseases[i-1].AttributedDeaths {
			t.Fatalf("diseases not sorted by attributed deaths: %+v", result.Diseases)
		}
	}
	total := 0.0
	for _, d := range result.Diseases {
		if d.AttributableFraction <= 0 || d.AttributableFraction >= 0.95 {
			t.Fatalf("%s: fraction %v out of range", d.Disease, d.AttributableFraction)
		}
		if d.CILower >= d.AttributedDeaths || d.CIUpper <= d.AttributedDeaths {
			t.Fatalf("%s: interval [%v, %v] does not bracket %v", d.Disease, d.CILower, d.CIUpper, d.AttributedDeaths)
		}
		total += d.AttributedDeaths
	}
	if result.TotalDeaths <= 0 {
		t.Fatalf("expected positive total, got %v", result.TotalDeaths)
	}
	if result.TotalCILower >= result.TotalDeaths || result.TotalCIUpper <= result.TotalDeaths {
		t.Fatalf("total interval [%v, %v] does not bracket %v", result.TotalCILower, result.TotalCIUpper, result.TotalDeaths)
	}
}

func TestCalculateAggregatedAliasLookup(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.Calculate("Vietnam", 30.0, 2021)
	if result.TotalDeaths <= 0 {
		t.Fatalf("alias lookup failed, got total %v", result.TotalDeaths)
	}
	if len(result.Diseases) != 1 || result.Diseases[0].Disease != "Stroke" {
		t.Fatalf("expected Viet Nam stroke baseline, got %+v", result.Diseases)
	}
}

func TestCalculateAggregatedSubstringLookup(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.Calculate("Lao People's", 30.0, 2021)
	if result.TotalDeaths <= 0 {
		t.Fatalf("substring lookup failed, got total %v", result.TotalDeaths)
	}
}

func TestCalculateAggregatedNearestYear(t *testing.T) {
	store := dataset.NewStore(nil, map[string]map[int]map[string]float64{
		"Myanmar": {
			2019: {"Stroke": 46000},
		},
	}, nil)
	engine := NewEngine(store)

	result := engine.Calculate("Myanmar", 30.0, 2027)
	if result.TotalDeaths <= 0 {
		t.Fatalf("nearest-year fallback failed, got total %v", result.TotalDeaths)
	}
}

func TestCalculateNoBaseline(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.Calculate("Atlantis", 30.0, 2021)
	if result.DataNote != "No health baseline data available" {
		t.Fatalf("unexpected data note %q", result.DataNote)
	}
	if result.TotalDeaths != 0 || len(result.Diseases) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func testRawRecords() []dataset.MortalityRecord {
	return []dataset.MortalityRecord{
		{LocationName: "Myanmar", Year: 2021, AgeName: "70-74 years", CauseName: "Stroke", MeasureName: "Deaths", Val: 9000, Upper: 11000, Lower: 7000},
		{LocationName: "Myanmar", Year: 2021, AgeName: "30-34 years", CauseName: "Stroke", MeasureName: "Deaths", Val: 2000, Upper: 2500, Lower: 1500},
		{LocationName: "Myanmar", Year: 2021, AgeName: "5-9 years", CauseName: "Lower respiratory infections", MeasureName: "Deaths", Val: 1200, Upper: 1500, Lower: 900},
		{LocationName: "Myanmar", Year: 2021, AgeName: "70-74 years", CauseName: "Stroke", MeasureName: "DALYs", Val: 99999, Upper: 99999, Lower: 99999},
		{LocationName: "Myanmar", Year: 2015, AgeName: "70-74 years", CauseName: "Stroke", MeasureName: "Deaths", Val: 8000, Upper: 9000, Lower: 7000},
	}
}

func TestCalculateAgeStratified(t *testing.T) {
	store := dataset.NewStore(nil, testBaselines(), testRawRecords())
	engine := NewEngine(store)

	result := engine.Calculate("Myanmar", 30.0, 2022)
	if !strings.HasPrefix(result.DataNote, "Age-stratified") {
		t.Fatalf("expected age-stratified path, got note %q", result.DataNote)
	}
	if !strings.Contains(result.DataNote, "2021") {
		t.Fatalf("expected closest baseline year 2021 in note %q", result.DataNote)
	}
	if len(result.AgeGroups) != 3 {
		t.Fatalf("expected 3 age bands, got %d", len(result.AgeGroups))
	}
	if result.AgeGroups[0].AgeGroup != "Elderly (65+)" {
		t.Fatalf("expected elderly band to dominate, got %q", result.AgeGroups[0].AgeGroup)
	}
	if result.AgeGroups[0].Vulnerability != 1.5 {
		t.Fatalf("expected elderly multiplier 1.5, got %v", result.AgeGroups[0].Vulnerability)
	}
	pctSum := 0.0
	for _, ag := range result.AgeGroups {
		pctSum += ag.Percentage
	}
	if pctSum < 99.0 || pctSum > 101.0 {
		t.Fatalf("age percentages sum to %v", pctSum)
	}
	for _, d := range result.Diseases {
		if d.Disease == "Stroke" && d.BaselineDeaths != 11000 {
			t.Fatalf("expected stroke baseline 11000 across bands, got %v", d.BaselineDeaths)
		}
	}
}

func TestCalculateFilteredAgeGroup(t *testing.T) {
	store := dataset.NewStore(nil, testBaselines(), testRawRecords())
	engine := NewEngine(store)

	result := engine.CalculateFiltered("Myanmar", 30.0, 2021, "elderly", "")
	if result.FilterApplied != "Age group: Elderly (65+)" {
		t.Fatalf("unexpected filter note %q", result.FilterApplied)
	}
	if len(result.AgeGroups) != 1 {
		t.Fatalf("expected single band after filter, got %d", len(result.AgeGroups))
	}
	if result.FilteredDeaths == nil || *result.FilteredDeaths <= 0 {
		t.Fatalf("expected filtered deaths, got %v", result.FilteredDeaths)
	}
	if result.FilteredCILower == nil || result.FilteredCIUpper == nil {
		t.Fatalf("expected filtered interval bounds")
	}
}

func TestCalculateFilteredDisease(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.CalculateFiltered("Myanmar", 30.0, 2021, "", "stroke")
	if len(result.Diseases) != 1 || result.Diseases[0].Disease != "Stroke" {
		t.Fatalf("expected stroke-only rows, got %+v", result.Diseases)
	}
	if !strings.Contains(result.FilterApplied, "Disease: stroke") {
		t.Fatalf("unexpected filter note %q", result.FilterApplied)
	}
}

func TestCalculateFilteredDiseaseNoMatch(t *testing.T) {
	engine := newAggregatedEngine()

	result := engine.CalculateFiltered("Myanmar", 30.0, 2021, "", "malaria")
	if len(result.Diseases) != 3 {
		t.Fatalf("unmatched filter should keep all rows, got %d", len(result.Diseases))
	}
	if strings.Contains(result.FilterApplied, "malaria") {
		t.Fatalf("unmatched filter should not be recorded, got %q", result.FilterApplied)
	}
}

func TestMatchCountry(t *testing.T) {
	engine := newAggregatedEngine()

	if name, ok := engine.MatchCountry("myanmar"); !ok || name != "Myanmar" {
		t.Fatalf("exact match failed: %q %v", name, ok)
	}
	if name, ok := engine.MatchCountry("Lao"); !ok || name != "Lao People's Democratic Republic" {
		t.Fatalf("substring match failed: %q %v", name, ok)
	}
	if _, ok := engine.MatchCountry("Atlantis"); ok {
		t.Fatalf("expected no match for unknown country")
	}
}
