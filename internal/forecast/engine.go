// Package forecast produces recursive annual and seasonal PM2.5
// projections from the trained model and historical observations.
package forecast

import (
	"sort"

	"github.com/airsight/airsight-engine/internal/dataset"
	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

const (
	// TMREL is the theoretical minimum risk exposure level; no
	// prediction is allowed below it.
	TMREL = 5.0

	// lastKnownYear is the final year with observed data.
	lastKnownYear = 2025

	// anchorYear is where every recursive forecast starts.
	anchorYear = 2020

	// fallbackPM25 is used when a country has no usable history at all.
	fallbackPM25 = 25.0
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// seasonalPatterns holds monthly PM2.5 multipliers per region, index 0
// is January.
var seasonalPatterns = map[string][12]float64{
	"Southeast Asia": {1.20, 1.25, 1.20, 1.10, 0.90, 0.80, 0.75, 0.80, 0.85, 0.95, 1.10, 1.15},
	"South Asia":     {1.30, 1.25, 1.15, 1.10, 1.05, 0.90, 0.85, 0.85, 0.90, 1.10, 1.25, 1.30},
	"East Asia":      {1.25, 1.20, 1.10, 1.00, 0.95, 0.90, 0.90, 0.95, 1.00, 1.10, 1.20, 1.25},
	"Default":        {1.15, 1.15, 1.10, 1.05, 0.95, 0.90, 0.90, 0.90, 0.95, 1.05, 1.10, 1.15},
}

var regionMap = map[string][]string{
	"Southeast Asia": {"Myanmar", "Thailand", "Vietnam", "Laos", "Cambodia", "Malaysia", "Singapore", "Indonesia", "Philippines"},
	"South Asia":     {"India", "Bangladesh", "Pakistan", "Sri Lanka", "Nepal", "Afghanistan", "Bhutan"},
	"East Asia":      {"China", "Japan", "Korea", "Taiwan", "Mongolia"},
}

// Engine turns historical series into recursive forecasts.
type Engine struct {
	model Model
	store *dataset.Store
}

// NewEngine wires the trained model to the historical store.
func NewEngine(model Model, store *dataset.Store) *Engine {
	return &Engine{model: model, store: store}
}

// Countries describes every country the engine can forecast for.
func (e *Engine) Countries() []models.CountryInfo {
	names := e.store.Countries()
	out := make([]models.CountryInfo, 0, len(names))
	for _, name := range names {
		series, _ := e.store.History(name)
		if len(series) == 0 {
			continue
		}
		out = append(out, models.CountryInfo{
			Name:       name,
			StartYear:  series[0].Year,
			EndYear:    series[len(series)-1].Year,
			DataPoints: len(series),
		})
	}
	return out
}

// HasCountry reports whether the engine holds history for the country.
func (e *Engine) HasCountry(country string) bool {
	return e.store.HasCountry(country)
}

// features builds the model input for a target year from a year->value
// series. Returns nil when fewer than 3 distinct years exist or the
// one-year lag is missing.
func features(series map[int]float64, targetYear int) []float64 {
	if len(series) < 3 {
		return nil
	}
	lag1, ok := series[targetYear-1]
	if !ok {
		return nil
	}
	lag3, ok := series[targetYear-3]
	if !ok {
		lag3 = lag1
	}

	yoyChange, yoyPct := 0.0, 0.0
	if lag2, ok := series[targetYear-2]; ok {
		yoyChange = lag1 - lag2
		if lag2 > 0.001 || lag2 < -0.001 {
			yoyPct = yoyChange / lag2
		}
	}

	roll3 := windowMean(series, targetYear-3, targetYear-1, lag1)
	roll5 := windowMean(series, targetYear-5, targetYear-1, lag1)

	return []float64{lag1, lag3, yoyChange, yoyPct, roll3, roll5, float64(targetYear)}
}

func windowMean(series map[int]float64, from, to int, fallback float64) float64 {
	sum, n := 0.0, 0
	for year := from; year <= to; year++ {
		if v, ok := series[year]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}

// Predict runs the recursive forecast from the anchor year through
// targetYear, appending each prediction to the working series so later
// years build on earlier ones.
func (e *Engine) Predict(country string, targetYear int) (*models.ForecastResult, error) {
	base, ok := e.store.History(country)
	if !ok {
		return nil, utils.ErrCountryNotFound
	}

	series := make(map[int]float64, len(base)+targetYear-anchorYear+1)
	lastValue := fallbackPM25
	lastYear := 0
	for _, yv := range base {
		series[yv.Year] = yv.Value
		if yv.Year > lastYear {
			lastYear = yv.Year
			lastValue = yv.Value
		}
	}

	path := make(map[int]float64, targetYear-anchorYear+1)
	for year := anchorYear; year <= targetYear; year++ {
		var pred float64
		if x := features(series, year); x == nil {
			pred = lastValue
		} else {
			pred = e.model.Predict(x)
			if pred < TMREL {
				pred = TMREL
			}
		}
		// The reported path is rounded, but later years build on the
		// unrounded value so rounding error does not compound.
		path[year] = utils.Round(pred, 2)
		series[year] = pred
		lastValue = pred
	}

	return &models.ForecastResult{
		Country:       country,
		TargetYear:    targetYear,
		PredictedPM25: path[targetYear],
		Path:          path,
		Unit:          "ug/m3",
		Confidence:    ConfidenceTier(targetYear),
	}, nil
}

// PredictMonthly scales the annual forecast by the country's regional
// seasonal factor for the requested month.
func (e *Engine) PredictMonthly(country string, year, month int) (*models.MonthlyForecastResult, error) {
	annual, err := e.Predict(country, year)
	if err != nil {
		return nil, err
	}
	region := regionFor(country)
	factor := 1.0
	if month >= 1 && month <= 12 {
		factor = seasonalPatterns[region][month-1]
	}
	monthName := ""
	if month >= 1 && month <= 12 {
		monthName = monthNames[month-1]
	}
	return &models.MonthlyForecastResult{
		Country:        country,
		Year:           year,
		Month:          month,
		MonthName:      monthName,
		PredictedPM25:  utils.Round(annual.PredictedPM25*factor, 2),
		AnnualPM25:     annual.PredictedPM25,
		SeasonalFactor: factor,
		Region:         region,
		Unit:           "ug/m3",
		Confidence:     annual.Confidence,
	}, nil
}

// PredictRange forecasts through endYear and keeps the path entries at
// or after startYear.
func (e *Engine) PredictRange(country string, startYear, endYear int) (*models.RangeForecastResult, error) {
	result, err := e.Predict(country, endYear)
	if err != nil {
		return nil, err
	}
	filtered := make(map[int]float64, len(result.Path))
	for year, value := range result.Path {
		if year >= startYear {
			filtered[year] = value
		}
	}
	return &models.RangeForecastResult{
		Country:     country,
		StartYear:   startYear,
		EndYear:     endYear,
		Predictions: filtered,
		Unit:        "ug/m3",
	}, nil
}

// ValueForYear returns the observed value when one exists, otherwise the
// forecast for that year. The second return reports whether the value
// came from observed data.
func (e *Engine) ValueForYear(country string, year int) (float64, bool, error) {
	if v, ok := e.store.Value(country, year); ok {
		return v, true, nil
	}
	result, err := e.Predict(country, year)
	if err != nil {
		return 0, false, err
	}
	return result.PredictedPM25, false, nil
}

// Actuals returns the observed series sorted by year.
func (e *Engine) Actuals(country string) []dataset.YearValue {
	series, _ := e.store.History(country)
	out := append([]dataset.YearValue(nil), series...)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Importances exposes the model's normalised feature importances.
func (e *Engine) Importances() map[string]float64 {
	return e.model.FeatureImportances()
}

func regionFor(country string) string {
	for region, members := range regionMap {
		for _, member := range members {
			if member == country {
				return region
			}
		}
	}
	return "Default"
}

// ConfidenceTier grades a forecast by its distance beyond the last
// observed year.
func ConfidenceTier(targetYear int) models.ConfidenceTier {
	yearsAhead := targetYear - lastKnownYear
	switch {
	case yearsAhead <= 3:
		return models.ConfidenceTier{Level: "high", Score: 0.90, Note: "Near-term forecast based on recent data"}
	case yearsAhead <= 7:
		return models.ConfidenceTier{Level: "moderate", Score: 0.70, Note: "Medium-term forecast; compounding uncertainty"}
	case yearsAhead <= 12:
		return models.ConfidenceTier{Level: "low", Score: 0.50, Note: "Long-term projection; treat as indicative trend"}
	default:
		return models.ConfidenceTier{Level: "speculative", Score: 0.30, Note: "Very long-range; high uncertainty"}
	}
}
