package models

// ConfidenceTier is a discrete trust label for a forecast horizon.
type ConfidenceTier struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
	Note  string  `json:"note"`
}

// ForecastResult holds one country's recursive annual PM2.5 prediction. Path
// always covers every year from the anchor year through the target year.
type ForecastResult struct {
	Country       string          `json:"country"`
	TargetYear    int             `json:"target_year"`
	PredictedPM25 float64         `json:"predicted_pm25"`
	Path          map[int]float64 `json:"prediction_path"`
	Unit          string          `json:"unit"`
	Confidence    ConfidenceTier  `json:"confidence"`
}

// MonthlyForecastResult is the seasonal variant of ForecastResult.
type MonthlyForecastResult struct {
	Country        string         `json:"country"`
	Year           int            `json:"year"`
	Month          int            `json:"month"`
	MonthName      string         `json:"month_name"`
	PredictedPM25  float64        `json:"predicted_pm25"`
	AnnualPM25     float64        `json:"annual_pm25"`
	SeasonalFactor float64        `json:"seasonal_factor"`
	Region         string         `json:"region"`
	Unit           string         `json:"unit"`
	Confidence     ConfidenceTier `json:"confidence"`
}

// RangeForecastResult is a window of the prediction path.
type RangeForecastResult struct {
	Country     string          `json:"country"`
	StartYear   int             `json:"start_year"`
	EndYear     int             `json:"end_year"`
	Predictions map[int]float64 `json:"predictions"`
	Unit        string          `json:"unit"`
}

// CountryInfo describes the observed data coverage for one country.
type CountryInfo struct {
	Name       string `json:"name"`
	StartYear  int    `json:"start_year"`
	EndYear    int    `json:"end_year"`
	DataPoints int    `json:"data_points"`
}
