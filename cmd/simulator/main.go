package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"agro_go/pkg/logger"
)

// Perfil base de sensores por cultura
type cropProfile struct {
	temperature    float64
	humidity       float64
	soilMoisture   float64
	leafWetness    float64
	soilTemp       float64
	soilPH         float64
	solarRadiation float64
}

var profiles = map[string]cropProfile{
	"tomato": {temperature: 24, humidity: 65, soilMoisture: 55, leafWetness: 45, soilTemp: 21, soilPH: 6.3, solarRadiation: 520},
	"potato": {temperature: 18, humidity: 70, soilMoisture: 60, leafWetness: 50, soilTemp: 16, soilPH: 5.6, solarRadiation: 430},
	"rice":   {temperature: 28, humidity: 78, soilMoisture: 80, leafWetness: 60, soilTemp: 25, soilPH: 6.0, solarRadiation: 600},
	"wheat":  {temperature: 20, humidity: 55, soilMoisture: 45, leafWetness: 30, soilTemp: 17, soilPH: 6.8, solarRadiation: 550},
	"maize":  {temperature: 26, humidity: 60, soilMoisture: 50, leafWetness: 35, soilTemp: 22, soilPH: 6.5, solarRadiation: 640},
}

func main() {
	crop := flag.String("crop", "tomato", "Cultura simulada (tomato, potato, rice, wheat, maize)")
	mode := flag.String("mode", "file", "Destino dos eventos: file ou mqtt")
	output := flag.String("output", "./sensor_data.jsonl", "Arquivo de saída no modo file")
	broker := flag.String("broker", "tcp://localhost:1883", "Endereço do broker MQTT")
	topic := flag.String("topic", "sensor-data", "Tópico MQTT de publicação")
	interval := flag.Duration("interval", 2*time.Second, "Intervalo entre eventos")
	count := flag.Int("count", 0, "Número de eventos a gerar (0 = contínuo)")
	flag.Parse()

	logger.Init()
	logger.SetLevel(logger.INFO)

	profile, ok := profiles[*crop]
	if !ok {
		logger.Fatalf("Cultura desconhecida: %s", *crop)
	}

	var publish func([]byte) error
	switch *mode {
	case "mqtt":
		client, err := connectMQTT(*broker)
		if err != nil {
			logger.Fatal("Erro ao conectar ao broker MQTT", err)
		}
		defer client.Disconnect(250)
		publish = func(data []byte) error {
			token := client.Publish(*topic, 1, false, data)
			token.Wait()
			return token.Error()
		}
	case "file":
		file, err := os.OpenFile(*output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatal("Erro ao abrir arquivo de saída", err)
		}
		defer file.Close()
		publish = func(data []byte) error {
			_, err := fmt.Fprintf(file, "%s\n", data)
			return err
		}
	default:
		logger.Fatalf("Modo desconhecido: %s", *mode)
	}

	logger.Infof("Simulador iniciado: cultura %s, modo %s, intervalo %s", *crop, *mode, *interval)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	step := 0

	for {
		event := generateEvent(*crop, profile, rng, step)
		data, err := json.Marshal(event)
		if err != nil {
			logger.Error("Erro ao serializar evento", err)
			continue
		}
		if err := publish(data); err != nil {
			logger.Error("Erro ao publicar evento", err)
		}

		step++
		if *count > 0 && step >= *count {
			logger.Infof("Simulação concluída: %d eventos gerados", step)
			return
		}
		time.Sleep(*interval)
	}
}

// connectMQTT conecta ao broker para publicação dos eventos
func connectMQTT(broker string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("agro-simulator-%d", time.Now().Unix())).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// generateEvent produz uma leitura com deriva senoidal, ruído e rajadas
// periódicas de condições de alto risco
func generateEvent(crop string, p cropProfile, rng *rand.Rand, step int) map[string]interface{} {
	drift := math.Sin(float64(step) / 20.0)

	temperature := p.temperature + drift*3 + rng.NormFloat64()*0.8
	humidity := p.humidity + drift*8 + rng.NormFloat64()*2
	soilMoisture := p.soilMoisture + drift*5 + rng.NormFloat64()*1.5
	leafWetness := p.leafWetness + drift*10 + rng.NormFloat64()*3
	rainForecast := clamp01(0.3 + drift*0.2 + rng.NormFloat64()*0.1)
	windSpeed := math.Max(0, 3+rng.NormFloat64()*1.5)
	solarRadiation := math.Max(0, p.solarRadiation+drift*80+rng.NormFloat64()*30)

	// A cada 50 eventos, uma janela prolongada de umidade alta
	if step%50 >= 40 {
		humidity = 84 + rng.Float64()*8
		leafWetness = 74 + rng.Float64()*12
		rainForecast = 0.7 + rng.Float64()*0.25
		windSpeed = rng.Float64() * 1.5
		solarRadiation = 180 + rng.Float64()*80
	}

	return map[string]interface{}{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"crop_type":        crop,
		"temperature":      round2(temperature),
		"humidity":         round2(clampRange(humidity, 0, 100)),
		"rain_forecast":    round2(rainForecast),
		"soil_moisture":    round2(clampRange(soilMoisture, 0, 100)),
		"wind_speed":       round2(windSpeed),
		"leaf_wetness":     round2(clampRange(leafWetness, 0, 100)),
		"soil_temperature": round2(p.soilTemp + drift*2 + rng.NormFloat64()*0.5),
		"soil_ph":          round2(p.soilPH + rng.NormFloat64()*0.1),
		"solar_radiation":  round2(solarRadiation),
	}
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
