// Package analytics composes the forecast, health and uncertainty
// engines into the ranking, scenario and comparison operations the
// query dispatcher exposes. No new models are introduced here.
package analytics

import (
	"log/slog"
	"math"
	"sort"

	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/health"
	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/uncertainty"
	"github.com/airsight/airsight-engine/internal/utils"
)

// Analyzer is safe for concurrent use; all collaborators are read-only.
type Analyzer struct {
	forecaster *forecast.Engine
	health     *health.Engine
	intervals  *uncertainty.Engine
	logger     *slog.Logger
}

// NewAnalyzer wires the three engines together.
func NewAnalyzer(forecaster *forecast.Engine, healthEngine *health.Engine, intervals *uncertainty.Engine, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		forecaster: forecaster,
		health:     healthEngine,
		intervals:  intervals,
		logger:     logger,
	}
}

// ForecastPM25 returns the point prediction for a country and year.
func (a *Analyzer) ForecastPM25(country string, year int) (float64, error) {
	result, err := a.forecaster.Predict(country, year)
	if err != nil {
		return 0, err
	}
	return result.PredictedPM25, nil
}

// PredictDeaths estimates attributed deaths and the rate per 100,000,
// using total baseline deaths as the denominator proxy.
func (a *Analyzer) PredictDeaths(country string, year int, pm25 float64) (deaths, rate float64) {
	result := a.health.Calculate(country, pm25, year)
	deaths = result.TotalDeaths

	totalBaseline := 0.0
	for _, d := range result.Diseases {
		totalBaseline += d.BaselineDeaths
	}
	if totalBaseline > 0 {
		rate = deaths / totalBaseline * 100000
	}
	return utils.Round(deaths, 0), utils.Round(rate, 1)
}

// DeathRate is the deaths-per-100k card for one country.
func (a *Analyzer) DeathRate(country string, year int) (*models.DeathRateResult, error) {
	pm25, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}
	deaths, rate := a.PredictDeaths(country, year, pm25)
	result := a.health.Calculate(country, pm25, year)
	totalBaseline := 0.0
	for _, d := range result.Diseases {
		totalBaseline += d.BaselineDeaths
	}
	return &models.DeathRateResult{
		Country:         country,
		Year:            year,
		Rate:            rate,
		Deaths:          deaths,
		PopulationProxy: utils.Round(totalBaseline, 0),
	}, nil
}

// Scenario simulates a signed percent PM2.5 change against baseline.
func (a *Analyzer) Scenario(country string, year int, percentChange float64) (*models.ScenarioResult, error) {
	baselinePM25, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}
	scenarioPM25 := math.Max(baselinePM25*(1+percentChange/100), forecast.TMREL)

	baselineDeaths, baselineRate := a.PredictDeaths(country, year, baselinePM25)
	scenarioDeaths, scenarioRate := a.PredictDeaths(country, year, scenarioPM25)

	delta := scenarioDeaths - baselineDeaths
	isIncrease := percentChange > 0

	var prevented, additional float64
	if isIncrease {
		additional = math.Max(0, delta)
	} else {
		prevented = math.Max(0, -delta)
	}

	conf := uncertainty.HealthConfidence(year)
	if conf == "High" {
		conf = "Medium"
	}

	scenarioHealth := a.health.Calculate(country, scenarioPM25, year)
	var topDiseases []string
	for i, d := range scenarioHealth.Diseases {
		if i == 3 {
			break
		}
		topDiseases = append(topDiseases, d.Disease)
	}

	return &models.ScenarioResult{
		Country:          country,
		Year:             year,
		PercentChange:    utils.Round(percentChange, 1),
		IsIncrease:       isIncrease,
		BaselinePM25:     utils.Round(baselinePM25, 2),
		ScenarioPM25:     utils.Round(scenarioPM25, 2),
		BaselineDeaths:   utils.Round(baselineDeaths, 0),
		ScenarioDeaths:   utils.Round(scenarioDeaths, 0),
		PreventedDeaths:  utils.Round(prevented, 0),
		AdditionalDeaths: utils.Round(additional, 0),
		BaselineRate:     utils.Round(baselineRate, 1),
		ScenarioRate:     utils.Round(scenarioRate, 1),
		Confidence:       conf,
		TopDiseases:      topDiseases,
	}, nil
}

// Sensitivity sweeps a uniform percent change across countries and
// ranks them by deaths prevented per 1% of reduction.
func (a *Analyzer) Sensitivity(countries []string, year int, deltaPercent float64) *models.SensitivityResult {
	absDelta := math.Abs(deltaPercent)

	var perCountry []models.CountrySensitivity
	for _, c := range countries {
		pm25Base, err := a.ForecastPM25(c, year)
		if err != nil {
			continue
		}
		pm25Scen := math.Max(pm25Base*(1+deltaPercent/100), forecast.TMREL)
		baseDeaths, _ := a.PredictDeaths(c, year, pm25Base)
		scenDeaths, _ := a.PredictDeaths(c, year, pm25Scen)
		if baseDeaths <= 0 {
			continue
		}

		delta := baseDeaths - scenDeaths
		per1pct := 0.0
		if absDelta > 0 {
			per1pct = utils.Round(delta/absDelta, 1)
		}
		perCountry = append(perCountry, models.CountrySensitivity{
			Country:          c,
			BaselinePM25:     utils.Round(pm25Base, 2),
			BaselineDeaths:   utils.Round(baseDeaths, 0),
			ScenarioDeaths:   utils.Round(scenDeaths, 0),
			Prevented:        utils.Round(delta, 0),
			PreventedPer1Pct: per1pct,
		})
	}

	sort.SliceStable(perCountry, func(i, j int) bool {
		return perCountry[i].PreventedPer1Pct > perCountry[j].PreventedPer1Pct
	})

	avg := 0.0
	if len(perCountry) > 0 {
		sum := 0.0
		for _, row := range perCountry {
			sum += row.PreventedPer1Pct
		}
		avg = utils.Round(sum/float64(len(perCountry)), 1)
	}

	top := perCountry
	if len(top) > 3 {
		top = top[:3]
	}
	return &models.SensitivityResult{
		Year:         year,
		DeltaPercent: deltaPercent,
		PerCountry:   perCountry,
		AvgPer1Pct:   avg,
		TopSensitive: top,
	}
}

// RankPM25 sorts countries by predicted concentration. Countries with
// no data are skipped silently.
func (a *Analyzer) RankPM25(countries []string, year, topN int, ascending bool) []models.PM25Rank {
	var results []models.PM25Rank
	for _, c := range countries {
		pm25, err := a.ForecastPM25(c, year)
		if err != nil {
			continue
		}
		results = append(results, models.PM25Rank{Country: c, PM25: utils.Round(pm25, 2)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if ascending {
			return results[i].PM25 < results[j].PM25
		}
		return results[i].PM25 > results[j].PM25
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// RankStability ranks by coefficient of variation over the window,
// lowest CV first.
func (a *Analyzer) RankStability(countries []string, startYear, endYear int) []models.StabilityRank {
	var results []models.StabilityRank
	for _, c := range countries {
		r, err := a.forecaster.PredictRange(c, startYear, endYear)
		if err != nil {
			continue
		}
		values := pathValues(r.Predictions)
		if len(values) < 2 {
			continue
		}
		mean := utils.Mean(values)
		std := utils.SampleStdDev(values)
		cv := 0.0
		if mean > 0 {
			cv = utils.Round(std/mean*100, 2)
		}
		label := "Volatile"
		if cv < 5 {
			label = "Stable"
		}
		results = append(results, models.StabilityRank{
			Country:  c,
			CV:       cv,
			MeanPM25: utils.Round(mean, 2),
			StdPM25:  utils.Round(std, 2),
			Label:    label,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].CV < results[j].CV })
	return results
}

// FastestImproving ranks by percent change over the window, most
// negative (fastest improving) first.
func (a *Analyzer) FastestImproving(countries []string, startYear, endYear int) []models.ImprovementRank {
	var results []models.ImprovementRank
	for _, c := range countries {
		r, err := a.forecaster.PredictRange(c, startYear, endYear)
		if err != nil {
			continue
		}
		startVal, okStart := r.Predictions[startYear]
		endVal, okEnd := r.Predictions[endYear]
		if !okStart || !okEnd || startVal == 0 {
			continue
		}
		pct := utils.Round((endVal-startVal)/startVal*100, 1)
		direction := "Worsening"
		if pct < 0 {
			direction = "Improving"
		}
		results = append(results, models.ImprovementRank{
			Country:   c,
			PM25Start: utils.Round(startVal, 2),
			PM25End:   utils.Round(endVal, 2),
			PctChange: pct,
			Direction: direction,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].PctChange < results[j].PctChange })
	return results
}

// LowestHealthBurden ranks countries by attributed deaths or DALYs,
// lowest first. Countries with zero deaths are treated as missing data.
func (a *Analyzer) LowestHealthBurden(countries []string, year int, metric string) []models.BurdenRank {
	dalys := metric == "dalys" || metric == "DALYS"
	var results []models.BurdenRank
	for _, c := range countries {
		pm25, err := a.ForecastPM25(c, year)
		if err != nil {
			continue
		}
		deaths, _ := a.PredictDeaths(c, year, pm25)
		if deaths <= 0 {
			continue
		}
		value := deaths
		label := "DEATHS"
		if dalys {
			// WHO approximation: one death accounts for 12.5 DALYs.
			value = deaths * 12.5
			label = "DALYS"
		}
		results = append(results, models.BurdenRank{
			Country: c,
			PM25:    utils.Round(pm25, 2),
			Deaths:  utils.Round(deaths, 0),
			Value:   utils.Round(value, 0),
			Metric:  label,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Value < results[j].Value })
	return results
}

// DeathsChangeYoY compares attributed deaths against the nearest prior
// year with usable data, searching up to five years back.
func (a *Analyzer) DeathsChangeYoY(country string, year int) (*models.DeathsYoYResult, error) {
	pm25Curr, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}
	deathsCurr, _ := a.PredictDeaths(country, year, pm25Curr)

	prevYear := 0
	deathsPrev := 0.0
	for y := year - 1; y >= year-5; y-- {
		pm25Prev, err := a.ForecastPM25(country, y)
		if err != nil {
			continue
		}
		d, _ := a.PredictDeaths(country, y, pm25Prev)
		if d > 0 {
			deathsPrev = d
			prevYear = y
			break
		}
	}

	if deathsPrev == 0 {
		return &models.DeathsYoYResult{
			Country:       country,
			Year:          year,
			DeathsCurrent: utils.Round(deathsCurr, 0),
			Error:         "No previous-year health data available for comparison",
		}, nil
	}

	delta := deathsCurr - deathsPrev
	pct := utils.Round(delta/deathsPrev*100, 1)
	direction := "Unchanged"
	if delta > 0 {
		direction = "Increased"
	} else if delta < 0 {
		direction = "Decreased"
	}

	return &models.DeathsYoYResult{
		Country:        country,
		Year:           year,
		PrevYear:       prevYear,
		DeathsCurrent:  utils.Round(deathsCurr, 0),
		DeathsPrevious: utils.Round(deathsPrev, 0),
		Delta:          utils.Round(delta, 0),
		PctChange:      pct,
		Direction:      direction,
	}, nil
}

func pathValues(path map[int]float64) []float64 {
	years := make([]int, 0, len(path))
	for y := range path {
		years = append(years, y)
	}
	sort.Ints(years)
	values := make([]float64, 0, len(years))
	for _, y := range years {
		values = append(values, path[y])
	}
	return values
}
