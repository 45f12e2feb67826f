// Package service dispatches parsed questions to the single analytics
// operation their intent names and assembles the typed query result,
// including the deterministic fallback answer and optional rewrite.
package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/airsight/airsight-engine/internal/analytics"
	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/health"
	"github.com/airsight/airsight-engine/internal/metrics"
	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/parser"
	"github.com/airsight/airsight-engine/internal/resolver"
	"github.com/airsight/airsight-engine/internal/rewrite"
	"github.com/airsight/airsight-engine/internal/utils"
)

// Error tags carried on QueryResult.Error. The answer text is always
// populated alongside them.
const (
	errNoCountry       = "no_country_found"
	errCountryNotFound = "country_not_found"
	errRegionNotFound  = "region_not_resolved"
	errNoData          = "no_data"
)

// healthCompareKeywords switch a comparison into health mode.
var healthCompareKeywords = []string{
	"health", "death", "mortality", "risk", "disease", "stroke", "cancer",
}

var topNRe = regexp.MustCompile(`\btop\s+(\d+)\b`)

// Dispatcher routes one parsed query to one operation. All collaborators
// are read-only, so a single Dispatcher serves concurrent requests.
type Dispatcher struct {
	parser         *parser.Parser
	forecaster     *forecast.Engine
	health         *health.Engine
	analyzer       *analytics.Analyzer
	rewriter       rewrite.Rewriter
	logger         *slog.Logger
	latency        *utils.LatencyTracker
	defaultCountry string
	countries      []string
}

// NewDispatcher wires the pipeline. A nil rewriter disables rewriting
// and a nil logger falls back to slog.Default().
func NewDispatcher(
	queryParser *parser.Parser,
	forecaster *forecast.Engine,
	healthEngine *health.Engine,
	analyzer *analytics.Analyzer,
	rewriter rewrite.Rewriter,
	defaultCountry string,
	logger *slog.Logger,
) *Dispatcher {
	if rewriter == nil {
		rewriter = rewrite.NoopRewriter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	infos := forecaster.Countries()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return &Dispatcher{
		parser:         queryParser,
		forecaster:     forecaster,
		health:         healthEngine,
		analyzer:       analyzer,
		rewriter:       rewriter,
		logger:         logger,
		latency:        utils.NewLatencyTracker(1024),
		defaultCountry: defaultCountry,
		countries:      names,
	}
}

// Handle parses the message and runs the matching operation.
func (d *Dispatcher) Handle(ctx context.Context, message string, history []models.Turn) models.QueryResult {
	start := time.Now()
	parsed := d.parser.Parse(ctx, message, history)
	result := d.dispatch(ctx, parsed, history)
	result.Parsed = parsed
	if result.Intent == "" {
		result.Intent = parsed.Intent
	}

	outcome := metrics.OutcomeSuccess
	if result.Error != "" {
		outcome = metrics.OutcomeError
	}
	elapsed := time.Since(start)
	metrics.ObserveQuery(string(parsed.Intent), elapsed, outcome)
	d.latency.Observe(elapsed)
	d.logger.Info("query handled",
		"intent", parsed.Intent,
		"country", parsed.Country,
		"year", parsed.Year,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
		"p95_ms", d.latency.Percentile(95).Milliseconds())
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, parsed models.ParsedQuery, history []models.Turn) models.QueryResult {
	msg := strings.ToLower(parsed.RawMessage)

	switch parsed.Intent {
	case models.IntentListCountries:
		payload := countryListPayload{Countries: d.countries, Total: len(d.countries)}
		return models.QueryResult{Answer: answerListCountries(d.countries), Data: payload}

	case models.IntentRiskRanking, models.IntentHighestRisk, models.IntentRankPM25,
		models.IntentStability, models.IntentFastestImprovement,
		models.IntentLowestBurden, models.IntentSensitivity:
		return d.dispatchRegional(ctx, parsed, history, msg)

	case models.IntentCompare:
		return d.dispatchCompare(ctx, parsed, history, msg)
	}

	country, ok := d.resolveCountry(parsed)
	if !ok {
		return models.QueryResult{Answer: noCountryAnswer, Error: errNoCountry}
	}

	switch parsed.Intent {
	case models.IntentForecast:
		result, err := d.forecaster.Predict(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerForecast(result))

	case models.IntentForecastMonthly:
		if parsed.Month == 0 {
			return d.monthRanking(ctx, parsed, history, country, true)
		}
		result, err := d.forecaster.PredictMonthly(country, parsed.Year, parsed.Month)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerMonthly(result))

	case models.IntentChange:
		if parsed.YearRange == nil {
			result, err := d.forecaster.Predict(country, parsed.Year)
			if err != nil {
				return d.countryNotFound(country)
			}
			return d.finish(ctx, parsed, history, result, answerForecast(result))
		}
		result, err := d.analyzer.PM25Change(country, parsed.YearRange.Start, parsed.YearRange.End)
		if err != nil {
			return models.QueryResult{Answer: err.Error(), Error: errNoData}
		}
		return d.finish(ctx, parsed, history, result, answerChange(result))

	case models.IntentHealthDeaths:
		pm25, err := d.analyzer.ForecastPM25(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		var result *models.HealthRiskResult
		if parsed.AgeGroup != "" || parsed.Disease != "" {
			result = d.health.CalculateFiltered(country, pm25, parsed.Year, parsed.AgeGroup, parsed.Disease)
		} else {
			result = d.health.Calculate(country, pm25, parsed.Year)
		}
		return d.finish(ctx, parsed, history, result, answerHealth(result))

	case models.IntentHealthRate:
		result, err := d.analyzer.DeathRate(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerRate(result))

	case models.IntentHealthDALYs:
		pm25, err := d.analyzer.ForecastPM25(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		result := d.health.Calculate(country, pm25, parsed.Year)
		return d.finish(ctx, parsed, history, result, answerDALYs(result))

	case models.IntentTopDiseases:
		diseases, err := d.analyzer.TopDiseases(country, parsed.Year, 3)
		if err != nil {
			return d.countryNotFound(country)
		}
		payload := topDiseasesPayload{Country: country, Year: parsed.Year, Diseases: diseases}
		return d.finish(ctx, parsed, history, payload, answerTopDiseases(country, parsed.Year, diseases))

	case models.IntentScenario:
		pct := -15.0
		if parsed.Percent != nil {
			pct = *parsed.Percent * float64(parsed.PercentSign)
		}
		result, err := d.analyzer.Scenario(country, parsed.Year, pct)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerScenario(result))

	case models.IntentTrend:
		startYear, endYear := trendWindow(parsed)
		result, err := d.analyzer.Trend(country, startYear, endYear)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerTrend(result))

	case models.IntentRiskLevel:
		result, err := d.analyzer.ClassifyRisk(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerRiskLevel(result))

	case models.IntentDeathsChangeYoY:
		result, err := d.analyzer.DeathsChangeYoY(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		return d.finish(ctx, parsed, history, result, answerDeathsYoY(result))

	case models.IntentExplainability:
		result, err := d.analyzer.Explain(country, parsed.Year)
		if err != nil {
			return d.countryNotFound(country)
		}
		note := forecast.ConfidenceTier(parsed.Year).Note
		return d.finish(ctx, parsed, history, result, answerExplain(result, note))

	case models.IntentBestMonth:
		return d.monthRanking(ctx, parsed, history, country, true)

	case models.IntentWorstMonth:
		return d.monthRanking(ctx, parsed, history, country, false)
	}

	return models.QueryResult{Intent: models.IntentUnknown, Answer: helpAnswer}
}

// dispatchRegional handles intents scoped to a region's country set.
func (d *Dispatcher) dispatchRegional(ctx context.Context, parsed models.ParsedQuery, history []models.Turn, msg string) models.QueryResult {
	res := resolver.Resolve(parsed.Region, d.countries)
	if !res.OK {
		return models.QueryResult{Answer: res.Error, Error: errRegionNotFound}
	}

	switch parsed.Intent {
	case models.IntentRiskRanking:
		ranks := d.analyzer.RankByRisk(res.Countries, parsed.Year)
		if len(ranks) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := riskRankingPayload{Region: res.Region, Year: parsed.Year, Rankings: ranks}
		return d.finish(ctx, parsed, history, payload, answerRiskRanking(res.Region, parsed.Year, ranks))

	case models.IntentHighestRisk:
		top, ok := d.analyzer.HighestRisk(res.Countries, parsed.Year)
		if !ok {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := highestRiskPayload{Region: res.Region, Year: parsed.Year, Top: top}
		return d.finish(ctx, parsed, history, payload, answerHighestRisk(res.Region, parsed.Year, top))

	case models.IntentRankPM25:
		topN := extractTopN(msg)
		ascending := strings.Contains(msg, "cleanest") ||
			strings.Contains(msg, "least polluted") ||
			strings.Contains(msg, "lowest")
		ranks := d.analyzer.RankPM25(res.Countries, parsed.Year, topN, ascending)
		if len(ranks) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := pm25RankingPayload{Region: res.Region, Year: parsed.Year, TopN: topN, Rankings: ranks}
		return d.finish(ctx, parsed, history, payload, answerRankPM25(res.Region, parsed.Year, topN, ranks))

	case models.IntentStability:
		startYear, endYear := trendWindow(parsed)
		ranks := d.analyzer.RankStability(res.Countries, startYear, endYear)
		if len(ranks) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := stabilityPayload{Region: res.Region, StartYear: startYear, EndYear: endYear, Rankings: ranks}
		return d.finish(ctx, parsed, history, payload, answerStability(res.Region, startYear, endYear, ranks))

	case models.IntentFastestImprovement:
		startYear, endYear := trendWindow(parsed)
		ranks := d.analyzer.FastestImproving(res.Countries, startYear, endYear)
		if len(ranks) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := improvementPayload{Region: res.Region, StartYear: startYear, EndYear: endYear, Rankings: ranks}
		return d.finish(ctx, parsed, history, payload, answerImprovement(res.Region, startYear, endYear, ranks))

	case models.IntentLowestBurden:
		metric := "deaths"
		if strings.Contains(msg, "daly") {
			metric = "dalys"
		}
		ranks := d.analyzer.LowestHealthBurden(res.Countries, parsed.Year, metric)
		if len(ranks) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		payload := burdenPayload{Region: res.Region, Year: parsed.Year, Metric: metric, Rankings: ranks}
		return d.finish(ctx, parsed, history, payload, answerBurden(res.Region, parsed.Year, metric, ranks))

	case models.IntentSensitivity:
		delta := -5.0
		if parsed.Percent != nil {
			delta = *parsed.Percent * float64(parsed.PercentSign)
		}
		result := d.analyzer.Sensitivity(res.Countries, parsed.Year, delta)
		if len(result.PerCountry) == 0 {
			return d.noRegionalData(res.Region, parsed.Year)
		}
		return d.finish(ctx, parsed, history, result, answerSensitivity(result))
	}

	return models.QueryResult{Intent: models.IntentUnknown, Answer: helpAnswer}
}

func (d *Dispatcher) dispatchCompare(ctx context.Context, parsed models.ParsedQuery, history []models.Turn, msg string) models.QueryResult {
	if len(parsed.Countries) < 2 {
		return models.QueryResult{Answer: needTwoCountriesAnswer}
	}

	healthMode := false
	for _, kw := range healthCompareKeywords {
		if strings.Contains(msg, kw) {
			healthMode = true
			break
		}
	}

	result := d.analyzer.Compare(parsed.Countries, parsed.Year, healthMode)
	if len(result.Rows) == 0 {
		return d.countryNotFound(parsed.Countries[0])
	}
	return d.finish(ctx, parsed, history, result, answerCompare(result))
}

func (d *Dispatcher) monthRanking(ctx context.Context, parsed models.ParsedQuery, history []models.Turn, country string, best bool) models.QueryResult {
	result, err := d.analyzer.RankMonths(country, parsed.Year)
	if err != nil {
		return d.countryNotFound(country)
	}
	answer := answerWorstMonth(result)
	if best {
		answer = answerBestMonth(result)
	}
	return d.finish(ctx, parsed, history, result, answer)
}

// resolveCountry applies the country-optional default.
func (d *Dispatcher) resolveCountry(parsed models.ParsedQuery) (string, bool) {
	if parsed.Country != "" {
		return parsed.Country, true
	}
	if parser.CountryOptional(parsed.Intent) && d.defaultCountry != "" {
		return d.defaultCountry, true
	}
	return "", false
}

func (d *Dispatcher) countryNotFound(country string) models.QueryResult {
	return models.QueryResult{
		Answer: countryNotFoundAnswer(country),
		Error:  errCountryNotFound,
	}
}

func (d *Dispatcher) noRegionalData(region string, year int) models.QueryResult {
	return models.QueryResult{
		Answer: "No data is available for " + region + " in " + strconv.Itoa(year) + ".",
		Error:  errNoData,
	}
}

// finish runs the optional rewrite and wraps the payload.
func (d *Dispatcher) finish(ctx context.Context, parsed models.ParsedQuery, history []models.Turn, data any, fallback string) models.QueryResult {
	answer := d.rewriter.Rewrite(ctx, parsed.Intent, data, parsed.RawMessage, fallback, history)
	return models.QueryResult{Intent: parsed.Intent, Answer: answer, Data: data}
}

// trendWindow picks the projection window: an explicit range when the
// question named two years, otherwise anchor year through target year.
func trendWindow(parsed models.ParsedQuery) (int, int) {
	if parsed.YearRange != nil {
		return parsed.YearRange.Start, parsed.YearRange.End
	}
	return 2020, parsed.Year
}

func extractTopN(msg string) int {
	if m := topNRe.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 10
}

type countryListPayload struct {
	Countries []string `json:"countries"`
	Total     int      `json:"total"`
}

type topDiseasesPayload struct {
	Country  string                 `json:"country"`
	Year     int                    `json:"year"`
	Diseases []models.DiseaseImpact `json:"diseases"`
}

type riskRankingPayload struct {
	Region   string            `json:"region"`
	Year     int               `json:"year"`
	Rankings []models.RiskRank `json:"rankings"`
}

type highestRiskPayload struct {
	Region string          `json:"region"`
	Year   int             `json:"year"`
	Top    models.RiskRank `json:"top"`
}

type pm25RankingPayload struct {
	Region   string            `json:"region"`
	Year     int               `json:"year"`
	TopN     int               `json:"top_n"`
	Rankings []models.PM25Rank `json:"rankings"`
}

type stabilityPayload struct {
	Region    string                 `json:"region"`
	StartYear int                    `json:"start_year"`
	EndYear   int                    `json:"end_year"`
	Rankings  []models.StabilityRank `json:"rankings"`
}

type improvementPayload struct {
	Region    string                   `json:"region"`
	StartYear int                      `json:"start_year"`
	EndYear   int                      `json:"end_year"`
	Rankings  []models.ImprovementRank `json:"rankings"`
}

type burdenPayload struct {
	Region   string              `json:"region"`
	Year     int                 `json:"year"`
	Metric   string              `json:"metric"`
	Rankings []models.BurdenRank `json:"rankings"`
}
