package analytics

import (
	"sort"

	"github.com/airsight/airsight-engine/internal/health"
	"github.com/airsight/airsight-engine/internal/models"
)

// RankMonths forecasts all twelve months of a year and ranks them by
// concentration, cleanest first.
func (a *Analyzer) RankMonths(country string, year int) (*models.MonthRankingResult, error) {
	ranked := make([]models.MonthRank, 0, 12)
	for month := 1; month <= 12; month++ {
		r, err := a.forecaster.PredictMonthly(country, year, month)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, models.MonthRank{
			Month:          month,
			MonthName:      r.MonthName,
			PM25:           r.PredictedPM25,
			AQI:            health.AQICategory(r.PredictedPM25).Level,
			SeasonalFactor: r.SeasonalFactor,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].PM25 < ranked[j].PM25 })

	return &models.MonthRankingResult{
		Country: country,
		Year:    year,
		Best:    ranked[0],
		Worst:   ranked[len(ranked)-1],
		Ranked:  ranked,
	}, nil
}
