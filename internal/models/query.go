package models

// Intent identifies which analytics operation a parsed question maps to.
type Intent string

const (
	IntentForecast           Intent = "PM25_FORECAST"
	IntentForecastMonthly    Intent = "PM25_FORECAST_MONTHLY"
	IntentChange             Intent = "PM25_CHANGE"
	IntentHealthDeaths       Intent = "HEALTH_DEATHS"
	IntentHealthRate         Intent = "HEALTH_RATE"
	IntentHealthDALYs        Intent = "HEALTH_DALYS"
	IntentTopDiseases        Intent = "TOP_DISEASES"
	IntentScenario           Intent = "SCENARIO_PM25_CHANGE"
	IntentSensitivity        Intent = "SENSITIVITY_PM25_DEATHS"
	IntentCompare            Intent = "COMPARE_HEALTH"
	IntentTrend              Intent = "TREND_PM25"
	IntentRiskLevel          Intent = "RISK_LEVEL"
	IntentRiskRanking        Intent = "RISK_RANKING"
	IntentHighestRisk        Intent = "HIGHEST_RISK_COUNTRY"
	IntentRankPM25           Intent = "RANK_PM25"
	IntentStability          Intent = "STABILITY_PM25"
	IntentFastestImprovement Intent = "FASTEST_IMPROVEMENT_PM25"
	IntentLowestBurden       Intent = "LOWEST_HEALTH_BURDEN"
	IntentDeathsChangeYoY    Intent = "DEATHS_CHANGE_YOY"
	IntentExplainability     Intent = "EXPLAINABILITY"
	IntentBestMonth          Intent = "BEST_MONTH"
	IntentWorstMonth         Intent = "WORST_MONTH"
	IntentListCountries      Intent = "LIST_COUNTRIES"
	IntentUnknown            Intent = "UNKNOWN"
)

// YearRange is an inclusive pair of years extracted from a question.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParsedQuery is the structured form of one free-text question. It is built
// per request, never persisted, and treated as immutable once produced.
type ParsedQuery struct {
	RawMessage  string     `json:"raw_message"`
	Intent      Intent     `json:"intent"`
	Confidence  float64    `json:"intent_confidence"`
	MatchedRule string     `json:"matched_rule,omitempty"`
	Countries   []string   `json:"countries"`
	Country     string     `json:"country,omitempty"`
	Year        int        `json:"year"`
	YearRange   *YearRange `json:"year_range,omitempty"`
	Month       int        `json:"month,omitempty"` // 1-12, 0 when absent
	Percent     *float64   `json:"percent,omitempty"`
	PercentSign int        `json:"percent_sign"` // +1 increase, -1 decrease
	AgeGroup    string     `json:"age_group,omitempty"`
	Disease     string     `json:"disease,omitempty"`
	Region      string     `json:"region,omitempty"`
}

// Turn is a single prior conversation message used for entity backfill.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryResult is the dispatcher output handed to the external renderer. The
// Answer field holds the deterministic fallback text; Data carries the typed
// payload for the operation that ran.
type QueryResult struct {
	Intent Intent      `json:"intent"`
	Answer string      `json:"answer"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Parsed ParsedQuery `json:"parsed"`
}
