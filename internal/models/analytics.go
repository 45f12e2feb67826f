package models

// ScenarioResult compares a baseline forecast against a signed percent change.
// Exactly one of PreventedDeaths / AdditionalDeaths is non-zero.
type ScenarioResult struct {
	Country          string   `json:"country"`
	Year             int      `json:"year"`
	PercentChange    float64  `json:"percent_change"`
	IsIncrease       bool     `json:"is_increase"`
	BaselinePM25     float64  `json:"baseline_pm25"`
	ScenarioPM25     float64  `json:"scenario_pm25"`
	BaselineDeaths   float64  `json:"baseline_deaths"`
	ScenarioDeaths   float64  `json:"scenario_deaths"`
	PreventedDeaths  float64  `json:"prevented_deaths"`
	AdditionalDeaths float64  `json:"additional_deaths"`
	BaselineRate     float64  `json:"baseline_rate"`
	ScenarioRate     float64  `json:"scenario_rate"`
	Confidence       string   `json:"confidence"`
	TopDiseases      []string `json:"top_diseases"`
}

// CountrySensitivity is one row of a sensitivity sweep.
type CountrySensitivity struct {
	Country          string  `json:"country"`
	BaselinePM25     float64 `json:"pm25_baseline"`
	BaselineDeaths   float64 `json:"baseline_deaths"`
	ScenarioDeaths   float64 `json:"scenario_deaths"`
	Prevented        float64 `json:"prevented"`
	PreventedPer1Pct float64 `json:"prevented_per_1pct"`
}

// SensitivityResult ranks countries by deaths prevented per 1% reduction.
type SensitivityResult struct {
	Year         int                  `json:"year"`
	DeltaPercent float64              `json:"delta_percent"`
	PerCountry   []CountrySensitivity `json:"per_country"`
	AvgPer1Pct   float64              `json:"avg_prevented_per_1pct"`
	TopSensitive []CountrySensitivity `json:"top_sensitive"`
}

// PM25Rank is one row of a concentration ranking.
type PM25Rank struct {
	Country string  `json:"country"`
	PM25    float64 `json:"pm25"`
}

// RiskRank is one row of a composite-risk-score ranking.
type RiskRank struct {
	Country   string  `json:"country"`
	PM25      float64 `json:"pm25"`
	RiskScore float64 `json:"risk_score"`
	RiskText  string  `json:"risk_text"`
	YoYPct    float64 `json:"yoy_pct"`
}

// StabilityRank is one row of a volatility ranking (lower CV = more stable).
type StabilityRank struct {
	Country  string  `json:"country"`
	CV       float64 `json:"cv"`
	MeanPM25 float64 `json:"mean_pm25"`
	StdPM25  float64 `json:"std_pm25"`
	Label    string  `json:"label"`
}

// ImprovementRank is one row of a percentage-change ranking over a window.
type ImprovementRank struct {
	Country   string  `json:"country"`
	PM25Start float64 `json:"pm25_start"`
	PM25End   float64 `json:"pm25_end"`
	PctChange float64 `json:"pct_change"`
	Direction string  `json:"direction"`
}

// BurdenRank is one row of a health-burden ranking, lowest first.
type BurdenRank struct {
	Country string  `json:"country"`
	PM25    float64 `json:"pm25"`
	Deaths  float64 `json:"deaths"`
	Value   float64 `json:"value"`
	Metric  string  `json:"metric"`
}

// TrendResult summarises pollution direction over a projection window.
type TrendResult struct {
	Country      string          `json:"country"`
	StartYear    int             `json:"start_year"`
	EndYear      int             `json:"end_year"`
	Direction    string          `json:"direction"`
	PctChange    float64         `json:"pct_change"`
	Stability    string          `json:"stability"`
	HealthImpact string          `json:"health_impact"`
	Predictions  map[int]float64 `json:"predictions"`
	WindowYears  int             `json:"window_years"`
}

// DeathsYoYResult compares attributable deaths against the nearest prior year
// with usable data. PrevYear is zero when no comparison year was found.
type DeathsYoYResult struct {
	Country        string  `json:"country"`
	Year           int     `json:"year"`
	PrevYear       int     `json:"prev_year,omitempty"`
	DeathsCurrent  float64 `json:"deaths_current"`
	DeathsPrevious float64 `json:"deaths_previous,omitempty"`
	Delta          float64 `json:"delta,omitempty"`
	PctChange      float64 `json:"pct_change,omitempty"`
	Direction      string  `json:"direction,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// ComparisonRow is one country of a multi-country comparison.
type ComparisonRow struct {
	Country string  `json:"country"`
	PM25    float64 `json:"pm25"`
	Deaths  float64 `json:"deaths,omitempty"`
}

// ComparisonResult holds a health or concentration comparison.
type ComparisonResult struct {
	Year       int             `json:"year"`
	HealthMode bool            `json:"health_mode"`
	Rows       []ComparisonRow `json:"rows"`
	Difference float64         `json:"difference,omitempty"`
}

// RiskClassification is the single-country risk tier card.
type RiskClassification struct {
	Country       string  `json:"country"`
	Year          int     `json:"year"`
	PM25          float64 `json:"pm25"`
	RiskText      string  `json:"risk_text"`
	HealthSummary string  `json:"health_summary"`
}

// MonthRank is one month of the seasonal breakdown, ranked by concentration.
type MonthRank struct {
	Month          int     `json:"month"`
	MonthName      string  `json:"month_name"`
	PM25           float64 `json:"pm25"`
	AQI            string  `json:"aqi"`
	SeasonalFactor float64 `json:"seasonal_factor"`
}

// MonthRankingResult is the best/worst month payload.
type MonthRankingResult struct {
	Country string      `json:"country"`
	Year    int         `json:"year"`
	Best    MonthRank   `json:"best_month"`
	Worst   MonthRank   `json:"worst_month"`
	Ranked  []MonthRank `json:"all_months"`
}

// Driver is one explainability row: a model feature or dominant disease.
type Driver struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail,omitempty"`
	Weight float64 `json:"weight"`
}

// ExplainResult carries pollution- and health-side drivers for a forecast.
type ExplainResult struct {
	Country          string   `json:"country"`
	Year             int      `json:"year"`
	PM25             float64  `json:"pm25"`
	PollutionDrivers []Driver `json:"pollution_drivers"`
	HealthDrivers    []Driver `json:"health_drivers"`
}

// ChangeResult reports the PM2.5 difference between two years.
type ChangeResult struct {
	Country   string  `json:"country"`
	Year1     int     `json:"year1"`
	Year2     int     `json:"year2"`
	PM25Y1    float64 `json:"pm25_y1"`
	PM25Y2    float64 `json:"pm25_y2"`
	AbsChange float64 `json:"abs_change"`
	PctChange float64 `json:"pct_change"`
}

// DeathRateResult is the deaths-per-100k payload.
type DeathRateResult struct {
	Country         string  `json:"country"`
	Year            int     `json:"year"`
	Rate            float64 `json:"rate"`
	Deaths          float64 `json:"deaths"`
	PopulationProxy float64 `json:"population_proxy"`
}
