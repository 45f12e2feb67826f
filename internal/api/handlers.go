package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airsight/airsight-engine/internal/models"
)

// QueryRequest is the chat-style entry point payload.
type QueryRequest struct {
	Message  string        `json:"message" binding:"required"`
	Messages []models.Turn `json:"messages"`
}

// PredictRequest asks for one country's annual forecast.
type PredictRequest struct {
	Country    string `json:"country" binding:"required"`
	TargetYear int    `json:"target_year"`
}

// MonthlyPredictRequest asks for the seasonal variant.
type MonthlyPredictRequest struct {
	Country string `json:"country" binding:"required"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
}

// HealthRiskRequest asks for the attribution card.
type HealthRiskRequest struct {
	Country    string `json:"country" binding:"required"`
	TargetYear int    `json:"target_year"`
}

// HealthRiskFilteredRequest narrows the card to an age group or disease.
type HealthRiskFilteredRequest struct {
	Country    string `json:"country" binding:"required"`
	TargetYear int    `json:"target_year"`
	AgeGroup   string `json:"age_group"`
	Disease    string `json:"disease"`
}

// healthRiskResponse attaches the driving forecast to the risk card.
type healthRiskResponse struct {
	*models.HealthRiskResult
	PM25Forecast *models.ForecastResult `json:"pm25_forecast"`
}

const defaultTargetYear = 2027

func (s *Server) query(c *gin.Context) {
	var req QueryRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	result := s.dispatcher.Handle(c.Request.Context(), req.Message, req.Messages)
	c.JSON(http.StatusOK, result)
}

func (s *Server) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.TargetYear == 0 {
		req.TargetYear = defaultTargetYear
	}
	result, err := s.forecaster.Predict(req.Country, req.TargetYear)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country '" + req.Country + "' not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) monthlyPredict(c *gin.Context) {
	var req MonthlyPredictRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Year == 0 {
		req.Year = defaultTargetYear
	}
	if req.Month == 0 {
		req.Month = 1
	}
	result, err := s.forecaster.PredictMonthly(req.Country, req.Year, req.Month)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country '" + req.Country + "' not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) healthRisk(c *gin.Context) {
	var req HealthRiskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.TargetYear == 0 {
		req.TargetYear = defaultTargetYear
	}
	pm25, err := s.forecaster.Predict(req.Country, req.TargetYear)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country '" + req.Country + "' not found"})
		return
	}
	risk := s.health.Calculate(req.Country, pm25.PredictedPM25, req.TargetYear)
	c.JSON(http.StatusOK, healthRiskResponse{HealthRiskResult: risk, PM25Forecast: pm25})
}

func (s *Server) healthRiskFiltered(c *gin.Context) {
	var req HealthRiskFilteredRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.TargetYear == 0 {
		req.TargetYear = defaultTargetYear
	}
	pm25, err := s.forecaster.Predict(req.Country, req.TargetYear)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country '" + req.Country + "' not found"})
		return
	}
	risk := s.health.CalculateFiltered(req.Country, pm25.PredictedPM25, req.TargetYear, req.AgeGroup, req.Disease)
	c.JSON(http.StatusOK, healthRiskResponse{HealthRiskResult: risk, PM25Forecast: pm25})
}

func (s *Server) countries(c *gin.Context) {
	countries := s.forecaster.Countries()
	c.JSON(http.StatusOK, gin.H{"countries": countries, "total": len(countries)})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if len(s.forecaster.Countries()) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no data loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
