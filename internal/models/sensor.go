package models

import "time"

// RawEvent é um evento bruto lido de uma fonte de stream, antes da validação
// (mapeamento de chaves para valores primitivos)
type RawEvent map[string]interface{}

// Níveis de risco de doença
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Condições climáticas classificadas pelo motor de features
const (
	WeatherWetWarm = "Wet-Warm"
	WeatherHeatDry = "Heat-Dry"
	WeatherStable  = "Stable"
)

// SensorEvent representa uma leitura validada dos sensores de campo
type SensorEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	CropType        string    `json:"crop_type"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	RainForecast    float64   `json:"rain_forecast"`
	SoilMoisture    float64   `json:"soil_moisture"`
	WindSpeed       float64   `json:"wind_speed"`
	LeafWetness     float64   `json:"leaf_wetness"`
	SoilTemperature float64   `json:"soil_temperature"`
	SoilPH          float64   `json:"soil_ph"`
	SolarRadiation  float64   `json:"solar_radiation"`
}

// FeatureSnapshot contém os canais brutos de uma leitura mais as features
// derivadas das janelas móveis naquele instante
type FeatureSnapshot struct {
	SensorEvent

	RollingTempAvg        float64 `json:"rolling_temp_avg"`
	RollingHumidityAvg    float64 `json:"rolling_humidity_avg"`
	RollingLeafWetnessAvg float64 `json:"rolling_leaf_wetness_avg"`
	HumidityAlert         bool    `json:"humidity_alert"`
	WeatherCondition      string  `json:"weather_condition"`
	AnomalyScore          float64 `json:"anomaly_score"`
}

// ForecastPoint é um ponto da trajetória de previsão de risco
type ForecastPoint struct {
	Hours     int `json:"hours"`
	RiskScore int `json:"risk_score"`
}

// ActionPlan agrupa as ações sugeridas por urgência
type ActionPlan struct {
	DoNow    []string `json:"do_now"`
	Today    []string `json:"today"`
	ThisWeek []string `json:"this_week"`
}

// RiskAssessment é o resultado completo da pontuação de risco de doença
type RiskAssessment struct {
	RiskScore          int             `json:"risk_score"`
	RiskLevel          string          `json:"risk_level"`
	Reasons            []string        `json:"reasons"`
	SuggestedActions   []string        `json:"suggested_actions"`
	PredictedDisease   string          `json:"predicted_disease"`
	DiseaseConfidence  int             `json:"disease_confidence"`
	DiseaseSuggestions []string        `json:"disease_suggestions"`
	OutbreakETAHours   int             `json:"outbreak_eta_hours"`
	OutbreakWindow     string          `json:"outbreak_window"`
	ForecastTrajectory []ForecastPoint `json:"forecast_trajectory"`
	ActionPlan         ActionPlan      `json:"action_plan"`
	AlertTriggered     bool            `json:"alert_triggered"`
}

// Telemetry é o payload completo distribuído aos assinantes: leitura,
// features e avaliação de risco achatados em um único objeto
type Telemetry struct {
	FeatureSnapshot
	RiskAssessment

	IngestionMode string `json:"ingestion_mode"`
}

// AlertRecord registra um alerta emitido na transição para risco HIGH
type AlertRecord struct {
	Timestamp          time.Time       `json:"timestamp"`
	Message            string          `json:"message"`
	RiskLevel          string          `json:"risk_level"`
	RiskScore          int             `json:"risk_score"`
	PredictedDisease   string          `json:"predicted_disease"`
	DiseaseConfidence  int             `json:"disease_confidence"`
	OutbreakETAHours   int             `json:"outbreak_eta_hours"`
	OutbreakWindow     string          `json:"outbreak_window"`
	ForecastTrajectory []ForecastPoint `json:"forecast_trajectory"`
	ReportFile         string          `json:"report_file"`
}

// StateSnapshot é a cópia imutável do estado ao vivo devolvida às consultas
type StateSnapshot struct {
	Latest  *Telemetry    `json:"latest"`
	History []Telemetry   `json:"history"`
	Alerts  []AlertRecord `json:"alerts"`
}

// PipelineStats resume os contadores de persistência do pipeline
type PipelineStats struct {
	SensorReadings    int64  `json:"sensor_readings"`
	ProcessedFeatures int64  `json:"processed_features"`
	RiskAssessments   int64  `json:"risk_assessments"`
	PipelineStatus    string `json:"pipeline_status"`
}
