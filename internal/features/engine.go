package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"agro_go/internal/models"
	"agro_go/pkg/utils"
)

// Tamanho padrão das janelas móveis quando não configurado
const DefaultWindowSize = 15

// MalformedEventError indica um evento bruto com campo ausente ou inválido
type MalformedEventError struct {
	Field string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("evento malformado: campo '%s' ausente ou inválido", e.Field)
}

// rollingWindow é uma janela deslizante de tamanho fixo sobre valores numéricos
type rollingWindow struct {
	values  []float64
	maxSize int
}

func newRollingWindow(maxSize int) *rollingWindow {
	return &rollingWindow{
		values:  make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// push adiciona um valor à janela, descartando o mais antigo se estiver cheia
func (w *rollingWindow) push(value float64) {
	if len(w.values) == w.maxSize {
		copy(w.values, w.values[1:])
		w.values[len(w.values)-1] = value
		return
	}
	w.values = append(w.values, value)
}

// mean calcula a média aritmética dos valores atuais da janela
func (w *rollingWindow) mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}

// Engine transforma eventos brutos em snapshots de features com
// agregações de janela móvel e classificação climática
type Engine struct {
	windowSize        int
	temperatureWindow *rollingWindow
	humidityWindow    *rollingWindow
	soilWindow        *rollingWindow
	leafWetnessWindow *rollingWindow
}

// NewEngine cria um motor de features com o tamanho de janela informado
func NewEngine(windowSize int) *Engine {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Engine{
		windowSize:        windowSize,
		temperatureWindow: newRollingWindow(windowSize),
		humidityWindow:    newRollingWindow(windowSize),
		soilWindow:        newRollingWindow(windowSize),
		leafWetnessWindow: newRollingWindow(windowSize),
	}
}

// WindowSize retorna o tamanho configurado das janelas móveis
func (e *Engine) WindowSize() int {
	return e.windowSize
}

// Process valida um evento bruto, atualiza as janelas móveis e calcula
// as features derivadas daquele instante
func (e *Engine) Process(event models.RawEvent) (models.FeatureSnapshot, error) {
	reading, err := parseEvent(event)
	if err != nil {
		return models.FeatureSnapshot{}, err
	}

	e.temperatureWindow.push(reading.Temperature)
	e.humidityWindow.push(reading.Humidity)
	e.soilWindow.push(reading.SoilMoisture)
	e.leafWetnessWindow.push(reading.LeafWetness)

	rollingTempAvg := e.temperatureWindow.mean()
	rollingHumidityAvg := e.humidityWindow.mean()
	rollingSoilAvg := e.soilWindow.mean()
	rollingLeafWetnessAvg := e.leafWetnessWindow.mean()

	humidityAlert := reading.Humidity > 80 || rollingHumidityAvg > 78

	// Classificação da condição climática
	var weatherCondition string
	switch {
	case humidityAlert && reading.LeafWetness > 70 && reading.RainForecast > 0.6 &&
		reading.Temperature >= 20 && reading.Temperature <= 30:
		weatherCondition = models.WeatherWetWarm
	case reading.Temperature > 32 && reading.Humidity < 45 && reading.SolarRadiation > 650:
		weatherCondition = models.WeatherHeatDry
	default:
		weatherCondition = models.WeatherStable
	}

	// Pontuação de anomalia: desvio normalizado em relação às médias móveis
	anomalyScore := math.Abs(reading.Temperature-rollingTempAvg)/10 +
		math.Abs(reading.Humidity-rollingHumidityAvg)/20 +
		math.Abs(reading.SoilMoisture-rollingSoilAvg)/20 +
		math.Abs(reading.LeafWetness-rollingLeafWetnessAvg)/20

	return models.FeatureSnapshot{
		SensorEvent:           reading,
		RollingTempAvg:        utils.Round2(rollingTempAvg),
		RollingHumidityAvg:    utils.Round2(rollingHumidityAvg),
		RollingLeafWetnessAvg: utils.Round2(rollingLeafWetnessAvg),
		HumidityAlert:         humidityAlert,
		WeatherCondition:      weatherCondition,
		AnomalyScore:          utils.Round3(anomalyScore),
	}, nil
}

// parseEvent valida o payload bruto e extrai uma leitura tipada
func parseEvent(event models.RawEvent) (models.SensorEvent, error) {
	cropRaw, ok := event["crop_type"]
	if !ok {
		return models.SensorEvent{}, &MalformedEventError{Field: "crop_type"}
	}
	cropType, ok := cropRaw.(string)
	if !ok || cropType == "" {
		return models.SensorEvent{}, &MalformedEventError{Field: "crop_type"}
	}

	reading := models.SensorEvent{CropType: cropType}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"temperature", &reading.Temperature},
		{"humidity", &reading.Humidity},
		{"rain_forecast", &reading.RainForecast},
		{"soil_moisture", &reading.SoilMoisture},
		{"wind_speed", &reading.WindSpeed},
		{"leaf_wetness", &reading.LeafWetness},
		{"soil_temperature", &reading.SoilTemperature},
		{"soil_ph", &reading.SoilPH},
		{"solar_radiation", &reading.SolarRadiation},
	}
	for _, f := range fields {
		raw, ok := event[f.name]
		if !ok {
			return models.SensorEvent{}, &MalformedEventError{Field: f.name}
		}
		value, ok := coerceFloat(raw)
		if !ok {
			return models.SensorEvent{}, &MalformedEventError{Field: f.name}
		}
		*f.dst = value
	}

	reading.Timestamp = parseEventTimestamp(event["timestamp"])
	return reading, nil
}

// coerceFloat aceita os tipos numéricos comuns produzidos por decodificadores JSON
func coerceFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// parseEventTimestamp aceita timestamps em string ou numéricos; eventos sem
// timestamp recebem o instante de processamento
func parseEventTimestamp(raw interface{}) time.Time {
	switch v := raw.(type) {
	case string:
		if ts, err := utils.ParseTimestamp(v); err == nil {
			return ts
		}
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	case time.Time:
		return v
	}
	return time.Now().UTC()
}
