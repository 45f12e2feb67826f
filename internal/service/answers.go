package service

import (
	"fmt"
	"strings"

	"github.com/airsight/airsight-engine/internal/models"
)

// helpAnswer lists example questions when no intent could be served.
const helpAnswer = "I can help with:\n" +
	"• PM2.5 predictions: 'What is the air quality in Myanmar in 2030?'\n" +
	"• Monthly forecasts: 'PM2.5 level in Thailand for April 2027'\n" +
	"• Travel advice: 'What is the best month to travel to Myanmar in 2026?'\n" +
	"• Pollution trends: 'Is air quality in India improving?'\n" +
	"• Health risks: 'Health impact of pollution in India 2028'\n" +
	"• Age-specific risks: 'How does pollution affect children in Myanmar?'\n" +
	"• Country list: 'Which countries do you have data for?'"

const noCountryAnswer = "I couldn't identify a country in your question. " +
	"Could you please specify a country? For example: " +
	"'What is the air quality in Myanmar for 2027?'"

const needTwoCountriesAnswer = "I see you want to compare, but I only found one country. " +
	"Please specify two or more countries to compare. Example: 'Compare Myanmar and Thailand'"

func countryNotFoundAnswer(country string) string {
	return fmt.Sprintf("Sorry, I don't have data for '%s'. Try asking about another country.", country)
}

func answerListCountries(names []string) string {
	sample := names
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return fmt.Sprintf("We have PM2.5 data for %d countries. Some examples: %s...",
		len(names), strings.Join(sample, ", "))
}

func answerForecast(r *models.ForecastResult) string {
	return fmt.Sprintf(
		"The predicted annual PM2.5 level for %s in %d is %.2f µg/m³. Confidence: %s.",
		r.Country, r.TargetYear, r.PredictedPM25, r.Confidence.Level)
}

func answerMonthly(r *models.MonthlyForecastResult) string {
	return fmt.Sprintf(
		"The predicted PM2.5 level for %s in %s %d is %.2f µg/m³ "+
			"(annual average: %.2f µg/m³, seasonal factor: %.2fx). Confidence: %s.",
		r.Country, r.MonthName, r.Year, r.PredictedPM25, r.AnnualPM25,
		r.SeasonalFactor, r.Confidence.Level)
}

func answerChange(r *models.ChangeResult) string {
	return fmt.Sprintf(
		"Country: %s\n"+
			"PM2.5 in %d: %.2f µg/m³\n"+
			"PM2.5 in %d: %.2f µg/m³\n"+
			"Change: %+.2f µg/m³ (%+.1f%%)",
		r.Country, r.Year1, r.PM25Y1, r.Year2, r.PM25Y2, r.AbsChange, r.PctChange)
}

func answerHealth(r *models.HealthRiskResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s\n", r.Country)
	b.WriteString("Outcome: Attributable Deaths (Air Pollution)\n")
	fmt.Fprintf(&b, "Forecast Year: %d\n", r.TargetYear)
	fmt.Fprintf(&b, "PM2.5: %.2f µg/m³ (%s)\n", r.PM25Level, r.AQI.Level)

	if r.FilteredDeaths != nil {
		label := r.FilterApplied
		if len(r.AgeGroups) > 0 {
			label = r.AgeGroups[0].AgeGroup
		}
		fmt.Fprintf(&b, "For %s: approximately %s attributable deaths (95%% CI: %s–%s)",
			label, fmtCount(*r.FilteredDeaths),
			fmtCount(derefOrZero(r.FilteredCILower)), fmtCount(derefOrZero(r.FilteredCIUpper)))
	} else {
		fmt.Fprintf(&b, "Total attributable deaths: %s (95%% CI: %s–%s)",
			fmtCount(r.TotalDeaths), fmtCount(r.TotalCILower), fmtCount(r.TotalCIUpper))
	}

	if len(r.Diseases) > 0 {
		b.WriteString("\n\nTop diseases:")
		for i, d := range r.Diseases {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "\n• %s: %s deaths", d.Disease, fmtCount(d.AttributedDeaths))
		}
	}
	return b.String()
}

func answerRate(r *models.DeathRateResult) string {
	return fmt.Sprintf(
		"Country: %s\n"+
			"Year: %d\n"+
			"Pollution-related death rate per 100,000: %.1f\n"+
			"(Deaths: %s, Baseline deaths pool: %s)",
		r.Country, r.Year, r.Rate, fmtCount(r.Deaths), fmtCount(r.PopulationProxy))
}

func answerDALYs(r *models.HealthRiskResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s\n", r.Country)
	fmt.Fprintf(&b, "Year: %d\n\n", r.TargetYear)
	b.WriteString("DALYs are not available in the current dataset.\n")
	b.WriteString("Here are attributable deaths and rate per 100k instead:\n\n")
	fmt.Fprintf(&b, "Total attributable deaths: %s (95%% CI: %s–%s)",
		fmtCount(r.TotalDeaths), fmtCount(r.TotalCILower), fmtCount(r.TotalCIUpper))
	if len(r.Diseases) > 0 {
		b.WriteString("\n\nTop diseases:")
		for i, d := range r.Diseases {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "\n• %s: %s deaths", d.Disease, fmtCount(d.AttributedDeaths))
		}
	}
	return b.String()
}

func answerTopDiseases(country string, year int, diseases []models.DiseaseImpact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s\n", country)
	fmt.Fprintf(&b, "Year: %d\n", year)
	fmt.Fprintf(&b, "Top %d diseases attributable to air pollution:", len(diseases))
	for _, d := range diseases {
		fmt.Fprintf(&b, "\n• %s: %s deaths", d.Disease, fmtCount(d.AttributedDeaths))
	}
	return b.String()
}

func answerScenario(r *models.ScenarioResult) string {
	pct := r.PercentChange
	if pct < 0 {
		pct = -pct
	}

	var b strings.Builder
	if r.IsIncrease {
		fmt.Fprintf(&b, "Scenario: PM2.5 increased by %.0f%%\n", pct)
		fmt.Fprintf(&b, "Country: %s\n", r.Country)
		fmt.Fprintf(&b, "Year: %d\n\n", r.Year)
		fmt.Fprintf(&b, "Baseline PM2.5: %.2f µg/m³\n", r.BaselinePM25)
		fmt.Fprintf(&b, "Increased PM2.5: %.2f µg/m³\n\n", r.ScenarioPM25)
		fmt.Fprintf(&b, "Baseline Deaths: %s\n", fmtCount(r.BaselineDeaths))
		fmt.Fprintf(&b, "Scenario Deaths: %s\n", fmtCount(r.ScenarioDeaths))
		fmt.Fprintf(&b, "Additional Deaths: %s\n\n", fmtCount(r.AdditionalDeaths))
	} else {
		fmt.Fprintf(&b, "Scenario: PM2.5 reduced by %.0f%%\n", pct)
		fmt.Fprintf(&b, "Country: %s\n", r.Country)
		fmt.Fprintf(&b, "Year: %d\n\n", r.Year)
		fmt.Fprintf(&b, "Baseline PM2.5: %.2f µg/m³\n", r.BaselinePM25)
		fmt.Fprintf(&b, "Reduced PM2.5: %.2f µg/m³\n\n", r.ScenarioPM25)
		fmt.Fprintf(&b, "Current Predicted Deaths: %s\n", fmtCount(r.BaselineDeaths))
		fmt.Fprintf(&b, "With %.0f%% Reduction: %s\n", pct, fmtCount(r.ScenarioDeaths))
		fmt.Fprintf(&b, "Estimated Prevented Deaths: %s\n\n", fmtCount(r.PreventedDeaths))
	}
	fmt.Fprintf(&b, "Confidence: %s (based on pollution CI)", r.Confidence)

	if len(r.TopDiseases) > 0 {
		b.WriteString("\n\nTop diseases still driving burden:")
		for _, disease := range r.TopDiseases {
			fmt.Fprintf(&b, "\n• %s", disease)
		}
	}
	return b.String()
}

func answerSensitivity(r *models.SensitivityResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sensitivity analysis: deaths per 1%% PM2.5 reduction (%d)\n", r.Year)
	fmt.Fprintf(&b, "Average across scope: %.1f deaths prevented per 1%% reduction\n\n", r.AvgPer1Pct)
	b.WriteString("Top 3 most sensitive countries:")
	for i, row := range r.TopSensitive {
		fmt.Fprintf(&b, "\n  %d. %s — %.1f deaths/1%% (baseline: %s deaths)",
			i+1, row.Country, row.PreventedPer1Pct, fmtCount(row.BaselineDeaths))
	}
	return b.String()
}

func answerCompare(r *models.ComparisonResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison for %d:\n", r.Year)
	for _, row := range r.Rows {
		if r.HealthMode {
			fmt.Fprintf(&b, "\n• %s: %s attributed deaths (PM2.5: %.2f µg/m³)",
				row.Country, fmtCount(row.Deaths), row.PM25)
		} else {
			fmt.Fprintf(&b, "\n• %s: %.2f µg/m³", row.Country, row.PM25)
		}
	}
	if r.HealthMode && len(r.Rows) >= 2 {
		fmt.Fprintf(&b, "\n\nDifference: %s deaths between top two.", fmtCount(r.Difference))
	}
	return b.String()
}

func answerTrend(r *models.TrendResult) string {
	word := "stable"
	switch r.Direction {
	case "Decreasing":
		word = "improving"
	case "Increasing":
		word = "worsening"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PM2.5 trend for %s (%d–%d):\n", r.Country, r.StartYear, r.EndYear)
	fmt.Fprintf(&b, "Direction: %s\n", word)
	startVal, okStart := r.Predictions[r.StartYear]
	endVal, okEnd := r.Predictions[r.EndYear]
	if okStart && okEnd {
		fmt.Fprintf(&b, "• %d: %.2f µg/m³\n", r.StartYear, startVal)
		fmt.Fprintf(&b, "• %d: %.2f µg/m³\n", r.EndYear, endVal)
		fmt.Fprintf(&b, "Change: %+.2f µg/m³ (%+.1f%%)\n", endVal-startVal, r.PctChange)
	} else {
		fmt.Fprintf(&b, "Change: %+.1f%%\n", r.PctChange)
	}
	fmt.Fprintf(&b, "Stability: %s\n", r.Stability)
	fmt.Fprintf(&b, "Health impact: %s", r.HealthImpact)
	return b.String()
}

func answerRiskLevel(r *models.RiskClassification) string {
	return fmt.Sprintf(
		"Risk Level Classification\n"+
			"Country: %s\n"+
			"Year: %d\n"+
			"Predicted PM2.5: %.2f µg/m³\n"+
			"Risk Level: %s\n"+
			"Expected Health Burden Impact: %s\n"+
			"Risk Scale: Low, Moderate, High, Very High",
		r.Country, r.Year, r.PM25, r.RiskText, r.HealthSummary)
}

func answerRiskRanking(region string, year int, ranks []models.RiskRank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %s risk scores for %d:", region, year)
	for i, r := range ranks {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "\n  %d. %s — Score: %.1f — PM2.5: %.2f µg/m³ — %s",
			i+1, r.Country, r.RiskScore, r.PM25, r.RiskText)
	}
	return b.String()
}

func answerHighestRisk(region string, year int, top models.RiskRank) string {
	return fmt.Sprintf(
		"Highest %s pollution risk in %d:\n%s (Score: %.1f, PM2.5: %.2f µg/m³, Risk: %s)",
		region, year, top.Country, top.RiskScore, top.PM25, top.RiskText)
}

func answerRankPM25(region string, year, topN int, ranks []models.PM25Rank) string {
	header := "PM2.5 ranking"
	if topN > 0 {
		header = fmt.Sprintf("Top %d most polluted", topN)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s (%d):", header, region, year)
	for i, r := range ranks {
		fmt.Fprintf(&b, "\n  %d. %s — PM2.5: %.2f µg/m³", i+1, r.Country, r.PM25)
	}
	return b.String()
}

func answerStability(region string, startYear, endYear int, ranks []models.StabilityRank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pollution stability ranking (%s, %d-%d):", region, startYear, endYear)
	for i, r := range ranks {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "\n  %d. %s — CV: %.1f%% (mean: %.1f µg/m³) [%s]",
			i+1, r.Country, r.CV, r.MeanPM25, r.Label)
	}
	return b.String()
}

func answerImprovement(region string, startYear, endYear int, ranks []models.ImprovementRank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fastest improving countries (%s, %d-%d):", region, startYear, endYear)
	for i, r := range ranks {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "\n  %d. %s — %+.1f%% (%.1f to %.1f µg/m³)",
			i+1, r.Country, r.PctChange, r.PM25Start, r.PM25End)
	}
	return b.String()
}

func answerBurden(region string, year int, metric string, ranks []models.BurdenRank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lowest health burden in %s (%d, by %s):", region, year, metric)
	for i, r := range ranks {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "\n  %d. %s — %s %s (PM2.5: %.1f µg/m³)",
			i+1, r.Country, fmtCount(r.Value), strings.ToLower(r.Metric), r.PM25)
	}
	return b.String()
}

func answerDeathsYoY(r *models.DeathsYoYResult) string {
	if r.Error != "" {
		return fmt.Sprintf("Country: %s\nYear: %d\n\n%s", r.Country, r.Year, r.Error)
	}
	return fmt.Sprintf(
		"Deaths year-over-year comparison: %s\n"+
			"Current year (%d): %s attributed deaths\n"+
			"Previous year (%d): %s attributed deaths\n\n"+
			"Change: %s deaths (%+.1f%%)\n"+
			"Direction: %s",
		r.Country, r.Year, fmtCount(r.DeathsCurrent),
		r.PrevYear, fmtCount(r.DeathsPrevious),
		fmtCountSigned(r.Delta), r.PctChange, r.Direction)
}

func answerExplain(r *models.ExplainResult, confidenceNote string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s\n", r.Country)
	fmt.Fprintf(&b, "Year: %d\n\n", r.Year)

	if len(r.PollutionDrivers) > 0 {
		b.WriteString("Main pollution drivers (model feature importances):")
		for _, d := range r.PollutionDrivers {
			fmt.Fprintf(&b, "\n• %s: %.1f%%", d.Name, d.Weight*100)
		}
		b.WriteString("\n\n")
	}
	if len(r.HealthDrivers) > 0 {
		b.WriteString("Health burden drivers (disease breakdown):")
		for i, d := range r.HealthDrivers {
			if i == 0 {
				fmt.Fprintf(&b, "\n• %s", d.Name)
				continue
			}
			fmt.Fprintf(&b, "\n• %s: %s deaths", d.Name, fmtCount(d.Weight))
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Confidence: %s", confidenceNote)
	return b.String()
}

func answerBestMonth(r *models.MonthRankingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Best time to visit %s in %d (based on air quality):\n\n", r.Country, r.Year)
	fmt.Fprintf(&b, "Best month: %s — PM2.5: %.2f µg/m³ (%s)\n", r.Best.MonthName, r.Best.PM25, r.Best.AQI)
	fmt.Fprintf(&b, "Worst month: %s — PM2.5: %.2f µg/m³ (%s)\n\n", r.Worst.MonthName, r.Worst.PM25, r.Worst.AQI)
	b.WriteString("Top 3 cleanest months:\n")
	for i, m := range r.Ranked {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "  %d. %s — %.2f µg/m³\n", i+1, m.MonthName, m.PM25)
	}
	b.WriteString("\nThe dry season (Nov–Mar) typically has higher pollution due to " +
		"agricultural burning and weather patterns. The rainy season (Jun–Sep) " +
		"tends to have cleaner air.")
	return b.String()
}

func answerWorstMonth(r *models.MonthRankingResult) string {
	desc := make([]models.MonthRank, len(r.Ranked))
	copy(desc, r.Ranked)
	for i, j := 0, len(desc)-1; i < j; i, j = i+1, j-1 {
		desc[i], desc[j] = desc[j], desc[i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Most polluted months in %s (%d):\n", r.Country, r.Year)
	for i, m := range desc {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "\n  %d. %s — PM2.5: %.2f µg/m³ (%s)", i+1, m.MonthName, m.PM25, m.AQI)
	}
	if len(desc) >= 2 {
		fmt.Fprintf(&b, "\n\nConsider wearing a mask outdoors during %s and %s.",
			desc[0].MonthName, desc[1].MonthName)
	}
	return b.String()
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// fmtCount renders a count with thousands separators.
func fmtCount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	n := int64(v + 0.5)
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		var out []byte
		for i, c := range []byte(s) {
			if i > 0 && (len(s)-i)%3 == 0 {
				out = append(out, ',')
			}
			out = append(out, c)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}

// fmtCountSigned always carries an explicit sign.
func fmtCountSigned(v float64) string {
	if v >= 0 {
		return "+" + fmtCount(v)
	}
	return fmtCount(v)
}
