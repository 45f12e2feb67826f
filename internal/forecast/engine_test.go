package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/airsight/airsight-engine/internal/dataset"
	"github.com/airsight/airsight-engine/internal/utils"
)

// stubModel returns a fixed score regardless of features.
type stubModel struct {
	value float64
}

func (m stubModel) Predict([]float64) float64 { return m.value }

func (m stubModel) FeatureNames() []string {
	return []string{"pm25_lag1", "pm25_lag3", "yoy_change", "yoy_pct", "roll3", "roll5", "year"}
}

func (m stubModel) FeatureImportances() map[string]float64 {
	return map[string]float64{"pm25_lag1": 1.0}
}

// lagModel echoes the one-year lag, so the series stays flat.
type lagModel struct{}

func (lagModel) Predict(features []float64) float64 { return features[0] }
func (lagModel) FeatureNames() []string             { return stubModel{}.FeatureNames() }
func (lagModel) FeatureImportances() map[string]float64 {
	return map[string]float64{"pm25_lag1": 1.0}
}

// driftModel adds a sub-rounding increment to the one-year lag each
// step, exposing whether the recursion feeds back rounded values.
type driftModel struct{}

func (driftModel) Predict(features []float64) float64 { return features[0] + 0.004 }
func (driftModel) FeatureNames() []string             { return stubModel{}.FeatureNames() }
func (driftModel) FeatureImportances() map[string]float64 {
	return map[string]float64{"pm25_lag1": 1.0}
}

func testHistory() map[string][]dataset.YearValue {
	return map[string][]dataset.YearValue{
		"Myanmar": {
			{Year: 2018, Value: 34.2}, {Year: 2019, Value: 33.1},
			{Year: 2020, Value: 31.5}, {Year: 2021, Value: 30.8},
			{Year: 2022, Value: 29.9}, {Year: 2023, Value: 28.7},
			{Year: 2024, Value: 27.4}, {Year: 2025, Value: 26.8},
		},
		"Thailand": {
			{Year: 2018, Value: 24.0}, {Year: 2019, Value: 23.5},
			{Year: 2020, Value: 22.8}, {Year: 2021, Value: 22.1},
			{Year: 2022, Value: 21.6}, {Year: 2023, Value: 21.0},
			{Year: 2024, Value: 20.3}, {Year: 2025, Value: 19.9},
		},
		"Sparse": {
			{Year: 2024, Value: 18.5}, {Year: 2025, Value: 17.9},
		},
	}
}

func newTestEngine(model Model) *Engine {
	store := dataset.NewStore(testHistory(), nil, nil)
	return NewEngine(model, store)
}

func TestPredictPathIsGapFree(t *testing.T) {
	engine := newTestEngine(stubModel{value: 20.0})

	result, err := engine.Predict("Myanmar", 2030)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if result.Country != "Myanmar" || result.TargetYear != 2030 {
		t.Fatalf("unexpected result identity: %+v", result)
	}
	for year := 2020; year <= 2030; year++ {
		value, ok := result.Path[year]
		if !ok {
			t.Fatalf("path missing year %d", year)
		}
		if value < TMREL {
			t.Fatalf("year %d predicted %.2f below floor %.1f", year, value, TMREL)
		}
	}
	if result.PredictedPM25 != result.Path[2030] {
		t.Fatalf("headline value %.2f does not match path entry %.2f", result.PredictedPM25, result.Path[2030])
	}
	if result.Unit != "ug/m3" {
		t.Fatalf("unexpected unit %q", result.Unit)
	}
}

func TestPredictClampsToFloor(t *testing.T) {
	engine := newTestEngine(stubModel{value: 1.2})

	result, err := engine.Predict("Myanmar", 2028)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	for year, value := range result.Path {
		if value < TMREL {
			t.Fatalf("year %d predicted %.2f below floor", year, value)
		}
	}
	if result.Path[2028] != TMREL {
		t.Fatalf("expected floored prediction %.1f, got %.2f", TMREL, result.Path[2028])
	}
}

func TestPredictRoundsToTwoDecimals(t *testing.T) {
	engine := newTestEngine(stubModel{value: 21.45678})

	result, err := engine.Predict("Myanmar", 2027)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if got := result.Path[2027]; got != 21.46 {
		t.Fatalf("expected 21.46, got %v", got)
	}
}

func TestPredictFeedsBackUnroundedValues(t *testing.T) {
	// Each step adds 0.004 to the lag. Building on the rounded path
	// instead of the raw prediction would hold the series at 33.1.
	engine := newTestEngine(driftModel{})

	result, err := engine.Predict("Myanmar", 2023)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	want := map[int]float64{2020: 33.1, 2021: 33.11, 2022: 33.11, 2023: 33.12}
	for year, expected := range want {
		if got := result.Path[year]; got != expected {
			t.Fatalf("year %d: expected %v, got %v (full path %v)", year, expected, got, result.Path)
		}
	}
}

func TestPredictShortHistoryCarriesLastValue(t *testing.T) {
	// With two observed years the anchor year repeats the last
	// observation; once the carried point pads the series to three the
	// model takes over.
	engine := newTestEngine(stubModel{value: 15.0})

	result, err := engine.Predict("Sparse", 2028)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if got := result.Path[2020]; got != 17.9 {
		t.Fatalf("2020: expected carried value 17.9, got %v", got)
	}
	if got := result.Path[2021]; got != 15.0 {
		t.Fatalf("2021: expected model value 15.0, got %v", got)
	}
}

func TestPredictCarriedValueSkipsFloor(t *testing.T) {
	// The floor only guards model output; a carried observation passes
	// through as-is.
	store := dataset.NewStore(map[string][]dataset.YearValue{
		"Clean": {{Year: 2024, Value: 3.1}, {Year: 2025, Value: 2.9}},
	}, nil, nil)
	engine := NewEngine(stubModel{value: 1.0}, store)

	result, err := engine.Predict("Clean", 2022)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if got := result.Path[2020]; got != 2.9 {
		t.Fatalf("2020: expected carried 2.9, got %v", got)
	}
	if got := result.Path[2021]; got != TMREL {
		t.Fatalf("2021: expected floored %.1f, got %v", TMREL, got)
	}
}

func TestPredictUnknownCountry(t *testing.T) {
	engine := newTestEngine(stubModel{value: 20.0})

	_, err := engine.Predict("Atlantis", 2027)
	if !errors.Is(err, utils.ErrCountryNotFound) {
		t.Fatalf("expected ErrCountryNotFound, got %v", err)
	}
}

func TestPredictRecursiveFeedback(t *testing.T) {
	// A lag-echo model keeps the series flat at the 2019 observation, so
	// every forecast year equals that value.
	engine := newTestEngine(lagModel{})

	result, err := engine.Predict("Thailand", 2027)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if got := result.Path[2020]; got != 23.5 {
		t.Fatalf("expected 2020 to echo 2019 value 23.5, got %v", got)
	}
	if got := result.Path[2027]; got != 23.5 {
		t.Fatalf("expected flat propagation to 2027, got %v", got)
	}
}

func TestPredictMonthlySeasonalScaling(t *testing.T) {
	engine := newTestEngine(stubModel{value: 30.0})

	result, err := engine.PredictMonthly("Myanmar", 2027, 2)
	if err != nil {
		t.Fatalf("PredictMonthly returned error: %v", err)
	}
	if result.Region != "Southeast Asia" {
		t.Fatalf("expected Southeast Asia region, got %q", result.Region)
	}
	if result.SeasonalFactor != 1.25 {
		t.Fatalf("expected February factor 1.25, got %v", result.SeasonalFactor)
	}
	if result.MonthName != "February" {
		t.Fatalf("expected February, got %q", result.MonthName)
	}
	want := utils.Round(result.AnnualPM25*1.25, 2)
	if result.PredictedPM25 != want {
		t.Fatalf("expected scaled %.2f, got %.2f", want, result.PredictedPM25)
	}
}

func TestPredictMonthlyDefaultRegion(t *testing.T) {
	store := dataset.NewStore(map[string][]dataset.YearValue{
		"Brazil": {
			{Year: 2018, Value: 14.0}, {Year: 2019, Value: 13.8},
			{Year: 2020, Value: 13.5}, {Year: 2021, Value: 13.1},
		},
	}, nil, nil)
	engine := NewEngine(stubModel{value: 13.0}, store)

	result, err := engine.PredictMonthly("Brazil", 2026, 7)
	if err != nil {
		t.Fatalf("PredictMonthly returned error: %v", err)
	}
	if result.Region != "Default" {
		t.Fatalf("expected Default region, got %q", result.Region)
	}
	if result.SeasonalFactor != 0.90 {
		t.Fatalf("expected July default factor 0.90, got %v", result.SeasonalFactor)
	}
}

func TestPredictRangeFiltersEarlierYears(t *testing.T) {
	engine := newTestEngine(stubModel{value: 22.0})

	result, err := engine.PredictRange("Myanmar", 2024, 2028)
	if err != nil {
		t.Fatalf("PredictRange returned error: %v", err)
	}
	if result.StartYear != 2024 || result.EndYear != 2028 {
		t.Fatalf("unexpected range bounds: %+v", result)
	}
	for year := range result.Predictions {
		if year < 2024 {
			t.Fatalf("prediction for %d leaked below start year", year)
		}
	}
	for year := 2024; year <= 2028; year++ {
		if _, ok := result.Predictions[year]; !ok {
			t.Fatalf("missing prediction for %d", year)
		}
	}
}

func TestValueForYearPrefersObserved(t *testing.T) {
	engine := newTestEngine(stubModel{value: 50.0})

	value, observed, err := engine.ValueForYear("Myanmar", 2023)
	if err != nil {
		t.Fatalf("ValueForYear returned error: %v", err)
	}
	if !observed {
		t.Fatalf("expected observed value for 2023")
	}
	if value != 28.7 {
		t.Fatalf("expected observed 28.7, got %v", value)
	}

	value, observed, err = engine.ValueForYear("Myanmar", 2028)
	if err != nil {
		t.Fatalf("ValueForYear returned error: %v", err)
	}
	if observed {
		t.Fatalf("2028 should be forecast, not observed")
	}
	if value < TMREL {
		t.Fatalf("forecast %.2f below floor", value)
	}
}

func TestCountriesMetadata(t *testing.T) {
	engine := newTestEngine(stubModel{value: 20.0})

	countries := engine.Countries()
	if len(countries) != 3 {
		t.Fatalf("expected 3 countries, got %d", len(countries))
	}
	for _, info := range countries {
		if info.Name == "Myanmar" {
			if info.StartYear != 2018 || info.EndYear != 2025 || info.DataPoints != 8 {
				t.Fatalf("unexpected Myanmar metadata: %+v", info)
			}
			return
		}
	}
	t.Fatalf("Myanmar missing from country list")
}

func TestConfidenceTierBoundaries(t *testing.T) {
	cases := []struct {
		year  int
		level string
		score float64
	}{
		{2027, "high", 0.90},
		{2030, "moderate", 0.70},
		{2034, "low", 0.50},
		{2040, "speculative", 0.30},
	}
	for _, tc := range cases {
		tier := ConfidenceTier(tc.year)
		if tier.Level != tc.level || tier.Score != tc.score {
			t.Fatalf("year %d: expected %s/%.2f, got %s/%.2f", tc.year, tc.level, tc.score, tier.Level, tier.Score)
		}
		if tier.Note == "" {
			t.Fatalf("year %d: empty confidence note", tc.year)
		}
	}
}

func TestFeaturesRequireHistory(t *testing.T) {
	series := map[int]float64{2024: 18.0, 2025: 17.5}
	if got := features(series, 2026); got != nil {
		t.Fatalf("expected nil features for short series, got %v", got)
	}

	series = map[int]float64{2020: 20.0, 2021: 19.5, 2022: 19.0}
	if got := features(series, 2026); got != nil {
		t.Fatalf("expected nil features without one-year lag, got %v", got)
	}

	got := features(series, 2023)
	if got == nil {
		t.Fatalf("expected features for complete series")
	}
	if len(got) != 7 {
		t.Fatalf("expected 7 features, got %d", len(got))
	}
	if got[0] != 19.0 {
		t.Fatalf("expected lag1 19.0, got %v", got[0])
	}
	if got[1] != 20.0 {
		t.Fatalf("expected lag3 20.0, got %v", got[1])
	}
	if got[2] != -0.5 {
		t.Fatalf("expected yoy change -0.5, got %v", got[2])
	}
	if got[6] != 2023 {
		t.Fatalf("expected year 2023, got %v", got[6])
	}
}

func TestStumpEnsemblePredict(t *testing.T) {
	model := &StumpEnsemble{
		BaseScore: 20.0,
		Features:  []string{"pm25_lag1", "year"},
		Trees: []stump{
			{Feature: 0, Threshold: 25.0, Left: -1.0, Right: 2.0},
			{Feature: 1, Threshold: 2025, Left: 0.5, Right: -0.5},
		},
	}

	if got := model.Predict([]float64{20.0, 2030}); got != 18.5 {
		t.Fatalf("expected 18.5, got %v", got)
	}
	if got := model.Predict([]float64{30.0, 2020}); got != 22.5 {
		t.Fatalf("expected 22.5, got %v", got)
	}
}

func TestStumpEnsembleImportancesNormalised(t *testing.T) {
	model := &StumpEnsemble{
		BaseScore: 0,
		Features:  []string{"a", "b"},
		Trees: []stump{
			{Feature: 0, Threshold: 1, Left: -3, Right: 0},
			{Feature: 1, Threshold: 1, Left: 0, Right: 1},
		},
	}

	importances := model.FeatureImportances()
	total := 0.0
	for _, v := range importances {
		total += v
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("importances sum to %v, expected 1", total)
	}
	if importances["a"] != 0.75 || importances["b"] != 0.25 {
		t.Fatalf("unexpected importances: %v", importances)
	}
}
