package analytics

import (
	"fmt"
	"sort"

	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

// RiskLevel classifies PM2.5 into a 4-tier scale aligned with WHO/AQI
// thresholds.
func RiskLevel(pm25 float64) string {
	switch {
	case pm25 < 12.0:
		return "Low"
	case pm25 < 35.5:
		return "Moderate"
	case pm25 < 55.5:
		return "High"
	default:
		return "Very High"
	}
}

// RiskHealthSummary renders a short health-burden summary for the risk
// card.
func RiskHealthSummary(pm25, deaths float64) string {
	switch RiskLevel(pm25) {
	case "Low":
		return fmt.Sprintf(
			"At %.1f µg/m³, air quality meets WHO interim targets. Estimated ~%s pollution-attributed deaths — relatively low burden.",
			pm25, formatCount(deaths))
	case "Moderate":
		return fmt.Sprintf(
			"PM2.5 of %.1f µg/m³ poses moderate health risks, contributing to an estimated ~%s attributed deaths annually. Vulnerable groups (children, elderly) face elevated respiratory risk.",
			pm25, formatCount(deaths))
	case "High":
		return fmt.Sprintf(
			"At %.1f µg/m³, pollution significantly raises disease risk. An estimated ~%s deaths are attributable to air pollution, with cardiovascular and respiratory conditions most affected.",
			pm25, formatCount(deaths))
	default:
		return fmt.Sprintf(
			"PM2.5 of %.1f µg/m³ presents severe health hazards. An estimated ~%s deaths are linked to air pollution exposure, demanding urgent public health intervention.",
			pm25, formatCount(deaths))
	}
}

// normalize scales a value into 0-100 over [low, high]. A degenerate
// range yields the midpoint.
func normalize(value, low, high float64) float64 {
	if high <= low {
		return 50.0
	}
	return utils.Clamp((value-low)/(high-low)*100.0, 0.0, 100.0)
}

// ComputeRiskScore blends concentration, trajectory and forecast
// uncertainty into a 0-100 composite.
func ComputeRiskScore(pm25, yoyPct, interval float64) float64 {
	nPM25 := normalize(pm25, 5.0, 100.0)
	nYoY := normalize(yoyPct, -20.0, 20.0)
	nInt := normalize(interval, 0.0, 30.0)
	return utils.Round(nPM25*0.6+nYoY*0.25+nInt*0.15, 1)
}

// PM25ChangeVsLastYear computes the percent change against the prior
// year, preferring actuals over forecasts for the prior value.
func (a *Analyzer) PM25ChangeVsLastYear(country string, year int, pm25Pred float64) float64 {
	prev, _, err := a.forecaster.ValueForYear(country, year-1)
	if err != nil || prev == 0 {
		return 0.0
	}
	return utils.Round((pm25Pred-prev)/prev*100.0, 1)
}

// RankByRisk scores every country and sorts descending.
func (a *Analyzer) RankByRisk(countries []string, year int) []models.RiskRank {
	var results []models.RiskRank
	for _, c := range countries {
		pm25, err := a.ForecastPM25(c, year)
		if err != nil {
			continue
		}
		yoy := a.PM25ChangeVsLastYear(c, year, pm25)
		interval, _ := a.intervals.PM25Interval(c, year, pm25)
		results = append(results, models.RiskRank{
			Country:   c,
			PM25:      utils.Round(pm25, 2),
			RiskScore: ComputeRiskScore(pm25, yoy, interval),
			RiskText:  RiskLevel(pm25),
			YoYPct:    yoy,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].RiskScore > results[j].RiskScore })
	return results
}

// HighestRisk returns the top-scoring country, or false when no country
// produced a score.
func (a *Analyzer) HighestRisk(countries []string, year int) (models.RiskRank, bool) {
	ranked := a.RankByRisk(countries, year)
	if len(ranked) == 0 {
		return models.RiskRank{}, false
	}
	return ranked[0], true
}

// ClassifyRisk builds the single-country risk tier card.
func (a *Analyzer) ClassifyRisk(country string, year int) (*models.RiskClassification, error) {
	pm25, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}
	deaths, _ := a.PredictDeaths(country, year, pm25)
	return &models.RiskClassification{
		Country:       country,
		Year:          year,
		PM25:          utils.Round(pm25, 2),
		RiskText:      RiskLevel(pm25),
		HealthSummary: RiskHealthSummary(pm25, deaths),
	}, nil
}

// formatCount renders a death count with thousands separators.
func formatCount(v float64) string {
	n := int64(v + 0.5)
	if n < 0 {
		n = 0
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
