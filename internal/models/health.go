package models

// AQICategory labels a PM2.5 concentration on the AQI scale.
type AQICategory struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

// DiseaseImpact is one disease row of a health-risk result.
type DiseaseImpact struct {
	Disease              string  `json:"disease"`
	Category             string  `json:"category"`
	AttributedDeaths     float64 `json:"attributed_deaths"`
	CILower              float64 `json:"ci_lower"`
	CIUpper              float64 `json:"ci_upper"`
	BaselineDeaths       float64 `json:"baseline_deaths"`
	RelativeRisk         float64 `json:"relative_risk"`
	AttributableFraction float64 `json:"attributable_fraction"`
}

// AgeGroupImpact is one age-band row of a health-risk result.
type AgeGroupImpact struct {
	AgeGroup         string  `json:"age_group"`
	AttributedDeaths float64 `json:"attributed_deaths"`
	CILower          float64 `json:"ci_lower"`
	CIUpper          float64 `json:"ci_upper"`
	Percentage       float64 `json:"percentage"`
	Vulnerability    float64 `json:"vulnerability_multiplier"`
}

// HealthRiskResult is the full attribution output for one country and year.
// DataNote records which computation path produced the numbers.
type HealthRiskResult struct {
	Country         string           `json:"country"`
	TargetYear      int              `json:"target_year"`
	PM25Level       float64          `json:"pm25_level"`
	ExcessExposure  float64          `json:"excess_exposure"`
	TMREL           float64          `json:"tmrel"`
	AQI             AQICategory      `json:"aqi_category"`
	TotalDeaths     float64          `json:"total_attributed_deaths"`
	TotalCILower    float64          `json:"total_ci_lower"`
	TotalCIUpper    float64          `json:"total_ci_upper"`
	Diseases        []DiseaseImpact  `json:"diseases"`
	AgeGroups       []AgeGroupImpact `json:"age_groups"`
	DataNote        string           `json:"data_note"`
	FilterApplied   string           `json:"filter_applied,omitempty"`
	FilteredDeaths  *float64         `json:"filtered_deaths,omitempty"`
	FilteredCILower *float64         `json:"filtered_ci_lower,omitempty"`
	FilteredCIUpper *float64         `json:"filtered_ci_upper,omitempty"`
}
