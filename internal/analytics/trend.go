package analytics

import (
	"fmt"

	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/utils"
)

// Trend projects PM2.5 over a multi-year window and derives direction,
// volatility and a qualitative health-burden outlook.
func (a *Analyzer) Trend(country string, startYear, endYear int) (*models.TrendResult, error) {
	r, err := a.forecaster.PredictRange(country, startYear, endYear)
	if err != nil {
		return nil, fmt.Errorf("no data available for country: %s", country)
	}

	values := pathValues(r.Predictions)
	if len(values) < 2 {
		return nil, fmt.Errorf("need at least 2 years for trend analysis")
	}

	startVal := values[0]
	endVal := values[len(values)-1]
	pctChange := 0.0
	if startVal > 0 {
		pctChange = (endVal - startVal) / startVal * 100.0
	}
	pctChange = utils.Round(pctChange, 1)

	direction := "Stable"
	if pctChange > 2.0 {
		direction = "Increasing"
	} else if pctChange < -2.0 {
		direction = "Decreasing"
	}

	mean := utils.Mean(values)
	std := utils.SampleStdDev(values)
	cv := 0.0
	if mean > 0 {
		cv = std / mean * 100
	}
	stability := "Volatile trend pattern (high volatility)"
	if cv < 5 {
		stability = "Stable trend pattern (low volatility)"
	}

	return &models.TrendResult{
		Country:      country,
		StartYear:    startYear,
		EndYear:      endYear,
		Direction:    direction,
		PctChange:    pctChange,
		Stability:    stability,
		HealthImpact: healthImpactText(direction, pctChange),
		Predictions:  r.Predictions,
		WindowYears:  len(values),
	}, nil
}

func healthImpactText(direction string, pctChange float64) string {
	magnitude := pctChange
	if magnitude < 0 {
		magnitude = -magnitude
	}
	switch direction {
	case "Decreasing":
		if magnitude > 10 {
			return "Significant pollution decline expected. Health burden projected to decrease noticeably, with fewer pollution-attributable deaths over the projection window."
		}
		return "Gradual pollution decline expected. Modest improvement in health burden anticipated over the projection window."
	case "Increasing":
		if magnitude > 10 {
			return "Substantial pollution increase projected. Health burden expected to rise significantly, with growing attributable mortality from cardiovascular and respiratory conditions."
		}
		return "Slight pollution increase projected. Health burden may grow marginally; continued monitoring and mitigation recommended."
	default:
		return "Pollution levels projected to remain roughly stable. Health burden expected to hold near current levels barring major policy or environmental changes."
	}
}
