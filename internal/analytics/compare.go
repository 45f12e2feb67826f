package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

// PM25Change reports the PM2.5 difference between two years, preferring
// observed values over forecasts for each endpoint.
func (a *Analyzer) PM25Change(country string, year1, year2 int) (*models.ChangeResult, error) {
	v1, _, err := a.forecaster.ValueForYear(country, year1)
	if err != nil {
		return nil, fmt.Errorf("no data for %s in %d", country, year1)
	}
	v2, _, err := a.forecaster.ValueForYear(country, year2)
	if err != nil {
		return nil, fmt.Errorf("no data for %s in %d", country, year2)
	}

	pct := 0.0
	if v1 > 0 {
		pct = utils.Round((v2-v1)/v1*100, 1)
	}
	return &models.ChangeResult{
		Country:   country,
		Year1:     year1,
		Year2:     year2,
		PM25Y1:    utils.Round(v1, 2),
		PM25Y2:    utils.Round(v2, 2),
		AbsChange: utils.Round(v2-v1, 2),
		PctChange: pct,
	}, nil
}

// Compare builds a multi-country comparison, by attributed deaths in
// health mode or by concentration otherwise. Countries without data are
// skipped.
func (a *Analyzer) Compare(countries []string, year int, healthMode bool) *models.ComparisonResult {
	var rows []models.ComparisonRow
	for _, c := range countries {
		pm25, err := a.ForecastPM25(c, year)
		if err != nil {
			continue
		}
		row := models.ComparisonRow{Country: c, PM25: utils.Round(pm25, 2)}
		if healthMode {
			deaths, _ := a.PredictDeaths(c, year, pm25)
			row.Deaths = deaths
		}
		rows = append(rows, row)
	}

	if healthMode {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Deaths > rows[j].Deaths })
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].PM25 > rows[j].PM25 })
	}

	result := &models.ComparisonResult{Year: year, HealthMode: healthMode, Rows: rows}
	if healthMode && len(rows) >= 2 {
		result.Difference = utils.Round(math.Abs(rows[0].Deaths-rows[1].Deaths), 0)
	}
	return result
}

// TopDiseases returns the top-k diseases by attributed deaths.
func (a *Analyzer) TopDiseases(country string, year, k int) ([]models.DiseaseImpact, error) {
	pm25, err := a.ForecastPM25(country, year)
	if err != nil {
		return nil, err
	}
	result := a.health.Calculate(country, pm25, year)
	diseases := result.Diseases
	if len(diseases) > k {
		diseases = diseases[:k]
	}
	return diseases, nil
}
