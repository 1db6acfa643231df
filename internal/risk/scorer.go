package risk

import (
	"strings"
	"sync"

	"agro_go/internal/models"
)

// Scorer avalia o risco de doença a partir de um snapshot de features.
// Mantém o último nível emitido para detectar a transição para HIGH
type Scorer struct {
	mu        sync.Mutex
	lastLevel string
}

// NewScorer cria um avaliador de risco com o nível inicial LOW
func NewScorer() *Scorer {
	return &Scorer{lastLevel: models.RiskLow}
}

// Score calcula a avaliação de risco completa para um snapshot de features
func (s *Scorer) Score(snap models.FeatureSnapshot) models.RiskAssessment {
	score := 0
	reasons := []string{}
	actions := []string{}

	if snap.Humidity > 80 {
		score += 25
		reasons = append(reasons, "Humidity is above 80%, creating fungal-friendly conditions.")
	}
	if snap.Temperature >= 20 && snap.Temperature <= 30 {
		score += 20
		reasons = append(reasons, "Temperature is in the 20–30°C fungal growth range.")
	}
	if snap.RainForecast >= 0.6 {
		score += 20
		reasons = append(reasons, "Rain is forecasted, increasing leaf wetness duration.")
	}
	if snap.LeafWetness > 70 {
		score += 12
		reasons = append(reasons, "Leaf wetness is elevated, increasing fungal germination likelihood.")
	}
	if snap.SoilMoisture > 70 {
		score += 10
		reasons = append(reasons, "Soil moisture is high, supporting pathogen persistence.")
	}
	if snap.WindSpeed < 2 {
		score += 10
		reasons = append(reasons, "Low wind speed can reduce canopy drying.")
	}
	if snap.SoilTemperature >= 18 && snap.SoilTemperature <= 28 {
		score += 8
		reasons = append(reasons, "Soil temperature supports disease development dynamics.")
	}
	if !(snap.SoilPH >= 5.8 && snap.SoilPH <= 7.2) {
		score += 6
		reasons = append(reasons, "Soil pH is outside the preferred range, increasing plant stress.")
	}
	if snap.Humidity > 80 && snap.SolarRadiation < 280 {
		score += 6
		reasons = append(reasons, "Low solar radiation with high humidity may prolong canopy wetness.")
	}
	if snap.AnomalyScore >= 1.0 {
		score += 10
		reasons = append(reasons, "Recent sensor pattern deviates from rolling baseline.")
	}

	cropKey := strings.ToLower(snap.CropType)
	adjustment, ok := cropAdjustments[cropKey]
	if !ok {
		adjustment = defaultCropAdjustment
	}
	score += adjustment

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var level string
	switch {
	case score >= 75:
		level = models.RiskHigh
		actions = append(actions,
			"Increase field scouting frequency to twice daily.",
			"Improve air circulation and avoid overhead irrigation.",
			"Prepare targeted fungicide plan based on local agronomy guidance.",
		)
	case score >= 45:
		level = models.RiskMedium
		actions = append(actions,
			"Monitor humidity and rainfall windows closely.",
			"Inspect lower canopy and shaded zones for early signs.",
			"Optimize irrigation timing for morning-only watering.",
		)
	default:
		level = models.RiskLow
		actions = append(actions,
			"Continue routine monitoring and maintain hygiene practices.",
			"Keep drainage and ventilation in good condition.",
		)
	}

	// Alerta apenas na transição de um nível inferior para HIGH
	s.mu.Lock()
	alertTriggered := level == models.RiskHigh && s.lastLevel != models.RiskHigh
	s.lastLevel = level
	s.mu.Unlock()

	disease, confidence, suggestions := predictDisease(snap, cropKey, score)
	eta, window := estimateOutbreakETA(snap, score)
	trajectory := forecastTrajectory(snap, score)
	plan := buildActionPlan(level, actions, suggestions)

	return models.RiskAssessment{
		RiskScore:          score,
		RiskLevel:          level,
		Reasons:            reasons,
		SuggestedActions:   actions,
		PredictedDisease:   disease,
		DiseaseConfidence:  confidence,
		DiseaseSuggestions: suggestions,
		OutbreakETAHours:   eta,
		OutbreakWindow:     window,
		ForecastTrajectory: trajectory,
		ActionPlan:         plan,
		AlertTriggered:     alertTriggered,
	}
}

// predictDisease escolhe a doença mais provável para a cultura dado o
// score atual e a abertura da janela fúngica
func predictDisease(snap models.FeatureSnapshot, cropKey string, score int) (string, int, []string) {
	disease := generalDiagnosis
	confidence := 45
	suggestions := generalSuggestions

	fungalWindow := (snap.Humidity > 78 && snap.LeafWetness > 65) ||
		(snap.RainForecast > 0.55 && snap.LeafWetness > 60) ||
		(score >= 75 && snap.Temperature >= 18 && snap.Temperature <= 32)

	if fungalWindow {
		if profile, ok := diseaseProfiles[cropKey]; ok {
			disease = profile.disease
			confidence = profile.confidence
			suggestions = profile.suggestions
		}
	}

	// Contingência: score alto sem diagnóstico específico
	if score >= 75 && disease == generalDiagnosis {
		if profile, ok := diseaseProfiles[cropKey]; ok {
			disease = profile.disease
		} else {
			disease = fallbackDiagnosis
		}
		if confidence < 68 {
			confidence = 68
		}
	}

	if scaled := int(float64(score) * 0.85); scaled > confidence {
		confidence = scaled
	}
	if confidence > 95 {
		confidence = 95
	}
	return disease, confidence, suggestions
}

// estimateOutbreakETA projeta o tempo até um possível surto e a janela textual
func estimateOutbreakETA(snap models.FeatureSnapshot, score int) (int, string) {
	over := score - 35
	if over < 0 {
		over = 0
	}
	eta := int(72 - float64(over)*1.15)
	if snap.Humidity > 80 {
		eta -= 8
	}
	if snap.LeafWetness > 70 {
		eta -= 10
	}
	if snap.RainForecast > 0.65 {
		eta -= 8
	}
	if snap.AnomalyScore > 1.2 {
		eta -= 6
	}

	if eta < 6 {
		eta = 6
	}
	if eta > 72 {
		eta = 72
	}

	var window string
	switch {
	case eta <= 12:
		window = "Critical window: within 12 hours"
	case eta <= 24:
		window = "High probability window: within 24 hours"
	case eta <= 48:
		window = "Moderate probability window: within 48 hours"
	default:
		window = "Watch window: within 72 hours"
	}
	return eta, window
}

// forecastTrajectory projeta o score de risco em horizontes de 12 a 72 horas
func forecastTrajectory(snap models.FeatureSnapshot, score int) []models.ForecastPoint {
	weatherPush := 0
	if snap.Humidity > 80 {
		weatherPush += 5
	}
	if snap.RainForecast > 0.6 {
		weatherPush += 6
	}
	if snap.LeafWetness > 70 {
		weatherPush += 5
	}
	if snap.WindSpeed < 2 {
		weatherPush += 3
	}

	horizons := []int{12, 24, 48, 72}
	points := make([]models.ForecastPoint, 0, len(horizons))
	for _, horizon := range horizons {
		decay := int(float64(horizon) * 0.22)
		projected := score + weatherPush - decay
		if projected < 5 {
			projected = 5
		}
		if projected > 100 {
			projected = 100
		}
		points = append(points, models.ForecastPoint{Hours: horizon, RiskScore: projected})
	}
	return points
}

// buildActionPlan distribui as ações sugeridas em faixas de urgência
func buildActionPlan(level string, actions, suggestions []string) models.ActionPlan {
	switch level {
	case models.RiskHigh:
		return models.ActionPlan{
			DoNow: append([]string{
				"Trigger high-risk protocol and notify field supervisor.",
			}, firstN(suggestions, 2)...),
			Today: append(firstN(actions, 2),
				"Capture geo-tagged photos and lesion notes from scouting zones.",
			),
			ThisWeek: []string{
				"Review disease progression trend and recalibrate intervention thresholds.",
				"Validate fungicide rotation and compliance with local advisory rules.",
			},
		}
	case models.RiskMedium:
		return models.ActionPlan{
			DoNow: append([]string{
				"Increase scouting frequency in shaded and low-airflow zones.",
			}, firstN(actions, 1)...),
			Today: append(firstN(suggestions, 2),
				"Check irrigation timing and avoid late-evening canopy wetness.",
			),
			ThisWeek: []string{
				"Track trend consistency before escalating to chemical controls.",
				"Review drainage and canopy management practices for hotspots.",
			},
		}
	default:
		return models.ActionPlan{
			DoNow: []string{"Maintain routine monitoring and verify sensor calibration."},
			Today: []string{"Inspect representative plots and document baseline crop health."},
			ThisWeek: []string{
				"Reassess risk thresholds using recent weather and disease observations.",
				"Train field staff on early symptom spotting checklist.",
			},
		}
	}
}

// firstN devolve uma cópia dos primeiros n elementos da lista
func firstN(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}
