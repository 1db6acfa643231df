package features

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/models"
)

func validEvent() models.RawEvent {
	return models.RawEvent{
		"timestamp":        "2026-05-10T08:30:00Z",
		"crop_type":        "tomato",
		"temperature":      24.0,
		"humidity":         65.0,
		"rain_forecast":    0.3,
		"soil_moisture":    55.0,
		"wind_speed":       3.0,
		"leaf_wetness":     40.0,
		"soil_temperature": 21.0,
		"soil_ph":          6.5,
		"solar_radiation":  500.0,
	}
}

func TestProcessFirstEvent(t *testing.T) {
	engine := NewEngine(15)

	snap, err := engine.Process(validEvent())
	require.NoError(t, err)

	// Com um único valor na janela, a média é o próprio valor
	assert.Equal(t, 24.0, snap.RollingTempAvg)
	assert.Equal(t, 65.0, snap.RollingHumidityAvg)
	assert.Equal(t, 40.0, snap.RollingLeafWetnessAvg)
	assert.Equal(t, 0.0, snap.AnomalyScore)
	assert.False(t, snap.HumidityAlert)
	assert.Equal(t, models.WeatherStable, snap.WeatherCondition)
	assert.Equal(t, "tomato", snap.CropType)

	expected, _ := time.Parse(time.RFC3339, "2026-05-10T08:30:00Z")
	assert.True(t, snap.Timestamp.Equal(expected))
}

func TestRollingWindowEviction(t *testing.T) {
	engine := NewEngine(3)

	temps := []float64{10, 20, 30, 40}
	var snap models.FeatureSnapshot
	var err error
	for _, temp := range temps {
		event := validEvent()
		event["temperature"] = temp
		snap, err = engine.Process(event)
		require.NoError(t, err)
	}

	// Janela cheia descarta o valor mais antigo: média de 20, 30 e 40
	assert.Equal(t, 30.0, snap.RollingTempAvg)
}

func TestHumidityAlert(t *testing.T) {
	t.Run("leitura instantânea acima de 80", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["humidity"] = 81.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.True(t, snap.HumidityAlert)
	})

	t.Run("média móvel acima de 78", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["humidity"] = 79.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.True(t, snap.HumidityAlert)
	})

	t.Run("sem alerta abaixo dos limiares", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["humidity"] = 75.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.False(t, snap.HumidityAlert)
	})
}

func TestWeatherClassification(t *testing.T) {
	t.Run("quente e úmido", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["humidity"] = 85.0
		event["leaf_wetness"] = 75.0
		event["rain_forecast"] = 0.7
		event["temperature"] = 25.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.Equal(t, models.WeatherWetWarm, snap.WeatherCondition)
	})

	t.Run("quente e seco", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["temperature"] = 34.0
		event["humidity"] = 40.0
		event["solar_radiation"] = 700.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.Equal(t, models.WeatherHeatDry, snap.WeatherCondition)
	})

	t.Run("quente e úmido exige alerta de umidade", func(t *testing.T) {
		engine := NewEngine(15)
		event := validEvent()
		event["humidity"] = 70.0
		event["leaf_wetness"] = 75.0
		event["rain_forecast"] = 0.7
		event["temperature"] = 25.0

		snap, err := engine.Process(event)
		require.NoError(t, err)
		assert.Equal(t, models.WeatherStable, snap.WeatherCondition)
	})
}

func TestAnomalyScore(t *testing.T) {
	engine := NewEngine(15)

	_, err := engine.Process(validEvent())
	require.NoError(t, err)

	// Segundo evento com desvio conhecido em relação às médias anteriores
	event := validEvent()
	event["temperature"] = 34.0 // média passa a 29, desvio 5
	event["humidity"] = 75.0    // média passa a 70, desvio 5
	event["soil_moisture"] = 65.0
	event["leaf_wetness"] = 50.0

	snap, err := engine.Process(event)
	require.NoError(t, err)

	// 5/10 + 5/20 + 5/20 + 5/20 = 1.25
	assert.Equal(t, 1.25, snap.AnomalyScore)
}

func TestMalformedEvents(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(models.RawEvent)
		field  string
	}{
		{"crop_type ausente", func(e models.RawEvent) { delete(e, "crop_type") }, "crop_type"},
		{"crop_type vazio", func(e models.RawEvent) { e["crop_type"] = "" }, "crop_type"},
		{"temperature ausente", func(e models.RawEvent) { delete(e, "temperature") }, "temperature"},
		{"humidity não numérico", func(e models.RawEvent) { e["humidity"] = "alta" }, "humidity"},
		{"soil_ph nulo", func(e models.RawEvent) { e["soil_ph"] = nil }, "soil_ph"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(15)
			event := validEvent()
			tc.mutate(event)

			_, err := engine.Process(event)
			require.Error(t, err)

			var malformed *MalformedEventError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tc.field, malformed.Field)
		})
	}
}

func TestMalformedEventDoesNotPolluteWindows(t *testing.T) {
	engine := NewEngine(15)

	bad := validEvent()
	bad["temperature"] = 99.0
	delete(bad, "soil_ph")
	_, err := engine.Process(bad)
	require.Error(t, err)

	snap, err := engine.Process(validEvent())
	require.NoError(t, err)
	assert.Equal(t, 24.0, snap.RollingTempAvg)
}

func TestCoerceFloatVariants(t *testing.T) {
	engine := NewEngine(15)
	event := validEvent()
	event["temperature"] = "26.5"
	event["humidity"] = 70
	event["soil_moisture"] = int64(60)

	snap, err := engine.Process(event)
	require.NoError(t, err)
	assert.Equal(t, 26.5, snap.Temperature)
	assert.Equal(t, 70.0, snap.Humidity)
	assert.Equal(t, 60.0, snap.SoilMoisture)
}

func TestTimestampFallback(t *testing.T) {
	engine := NewEngine(15)
	event := validEvent()
	delete(event, "timestamp")

	before := time.Now().UTC()
	snap, err := engine.Process(event)
	require.NoError(t, err)

	assert.False(t, snap.Timestamp.Before(before))
}

func TestWindowsSharedAcrossCrops(t *testing.T) {
	engine := NewEngine(15)

	event := validEvent()
	event["temperature"] = 20.0
	_, err := engine.Process(event)
	require.NoError(t, err)

	// As janelas móveis são globais ao processo: leituras de culturas
	// diferentes alimentam as mesmas médias
	other := validEvent()
	other["crop_type"] = "rice"
	other["temperature"] = 30.0

	snap, err := engine.Process(other)
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.RollingTempAvg)
}

func TestDefaultWindowSize(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewEngine(0).WindowSize())
	assert.Equal(t, DefaultWindowSize, NewEngine(-3).WindowSize())
	assert.Equal(t, 7, NewEngine(7).WindowSize())
}
