package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

// featureLabels translates model feature names into readable phrases.
var featureLabels = map[string]string{
	"lag_1y":          "Previous year PM2.5 level",
	"lag_3y":          "PM2.5 level three years ago",
	"yoy_change":      "Year-over-year change trajectory",
	"yoy_pct_change":  "Year-over-year percentage change",
	"rolling_mean_3y": "3-year moving average trend",
	"rolling_mean_5y": "5-year moving average trend",
	"year":            "Calendar year (temporal trend)",
}

// Explain builds the drivers card: top model features on the pollution
// side, exposure plus dominant diseases on the health side.
func (a *Analyzer) Explain(country string, year int) (*models.ExplainResult, error) {
	pm25, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}

	importances := a.forecaster.Importances()
	type featureWeight struct {
		name   string
		weight float64
	}
	ranked := make([]featureWeight, 0, len(importances))
	for name, weight := range importances {
		ranked = append(ranked, featureWeight{name, weight})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].name < ranked[j].name
	})

	var pollutionDrivers []models.Driver
	for i, fw := range ranked {
		if i == 3 {
			break
		}
		label := fw.name
		if readable, ok := featureLabels[fw.name]; ok {
			label = readable
		}
		pollutionDrivers = append(pollutionDrivers, models.Driver{
			Name:   label,
			Weight: utils.Round(fw.weight, 4),
		})
	}

	healthResult := a.health.Calculate(country, pm25, year)
	excess := math.Max(0, pm25-forecast.TMREL)
	healthDrivers := []models.Driver{{
		Name:   fmt.Sprintf("PM2.5 exposure (%.1f above safe threshold)", excess),
		Weight: utils.Round(pm25, 1),
	}}
	for i, d := range healthResult.Diseases {
		if i == 2 {
			break
		}
		healthDrivers = append(healthDrivers, models.Driver{
			Name:   d.Disease,
			Detail: d.Category,
			Weight: utils.Round(d.AttributedDeaths, 0),
		})
	}

	return &models.ExplainResult{
		Country:          country,
		Year:             year,
		PM25:             utils.Round(pm25, 2),
		PollutionDrivers: pollutionDrivers,
		HealthDrivers:    healthDrivers,
	}, nil
}
