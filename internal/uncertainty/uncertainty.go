// Package uncertainty derives prediction intervals and confidence
// labels from backtesting residuals, without retraining the model.
package uncertainty

import (
	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/utils"
)

const (
	// lastKnownYear is the latest year with actuals.
	lastKnownYear = 2025

	// horizonGrowthRate widens the interval 15% per extra forecast year.
	horizonGrowthRate = 0.15

	backtestStart = 2020
	backtestEnd   = 2024
)

// Engine backtests the forecaster against observed years to size
// prediction intervals.
type Engine struct {
	forecaster *forecast.Engine
}

// NewEngine wires the uncertainty engine to the forecaster.
func NewEngine(forecaster *forecast.Engine) *Engine {
	return &Engine{forecaster: forecaster}
}

// PM25Interval computes the ± interval in ug/m3 and a confidence label
// for a prediction.
func (e *Engine) PM25Interval(country string, year int, pm25Pred float64) (float64, string) {
	residuals := e.collectResiduals(country)
	yearsAhead := year - lastKnownYear
	if yearsAhead < 1 {
		yearsAhead = 1
	}

	var std float64
	if len(residuals) >= 2 {
		std = utils.SampleStdDev(residuals)
	} else {
		std = pm25Pred * 0.15
	}

	interval := 1.96 * std * (1 + horizonGrowthRate*float64(yearsAhead-1))
	if interval < 0.5 {
		interval = 0.5
	}
	interval = utils.Round(interval, 1)

	return interval, confidenceLabel(interval, yearsAhead)
}

// collectResiduals compares the recursive forecast against actuals over
// the backtest window.
func (e *Engine) collectResiduals(country string) []float64 {
	actuals := map[int]float64{}
	for _, yv := range e.forecaster.Actuals(country) {
		actuals[yv.Year] = yv.Value
	}

	result, err := e.forecaster.Predict(country, backtestEnd)
	if err != nil {
		return nil
	}

	var residuals []float64
	for year := backtestStart; year <= backtestEnd; year++ {
		actual, okActual := actuals[year]
		predicted, okPred := result.Path[year]
		if okActual && okPred {
			residuals = append(residuals, predicted-actual)
		}
	}
	return residuals
}

func confidenceLabel(interval float64, yearsAhead int) string {
	switch {
	case interval <= 3.0 && yearsAhead <= 3:
		return "High"
	case interval <= 6.0 && yearsAhead <= 7:
		return "Medium"
	default:
		return "Low"
	}
}

// ConfidenceNote renders the human-readable note for a label.
func ConfidenceNote(label string, yearsAhead int) string {
	var note string
	switch label {
	case "High":
		note = "Near-term forecast with narrow error margin"
	case "Medium":
		note = "Medium-range forecast; moderate uncertainty"
	case "Low":
		note = "Long-range projection; treat as indicative"
	}
	if yearsAhead > 3 {
		note += ". Confidence degrades for farther years"
	}
	return note
}

// HealthConfidence labels health-impact predictions. Health confidence
// sits below PM2.5 confidence because it chains exposure uncertainty
// through the IER curve and baseline mortality estimates.
func HealthConfidence(year int) string {
	yearsAhead := year - lastKnownYear
	if yearsAhead < 1 {
		yearsAhead = 1
	}
	switch {
	case yearsAhead <= 2:
		return "Medium"
	case yearsAhead <= 5:
		return "Low-Medium"
	default:
		return "Low"
	}
}
