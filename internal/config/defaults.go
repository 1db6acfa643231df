package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			StaticDir:       "./static",
		},
		Stream: StreamConfig{
			Source: "file",
			MQTT: MQTTConfig{
				Broker:   "tcp://localhost:1883",
				Topic:    "sensor-data",
				ClientID: "agroguardian-consumer",
				QoS:      1,
			},
			HTTP: HTTPConfig{
				Endpoint:     "http://localhost:8081/api/sensors",
				PollInterval: 5 * time.Second,
			},
			File: FileConfig{
				Path: "./sensor_data.jsonl",
			},
			PLC: PLCConfig{
				Host:         "192.168.1.100",
				Rack:         0,
				Slot:         1,
				DBNumber:     1,
				StartOffset:  0,
				CropType:     "tomato",
				ReadInterval: 5 * time.Second,
				ReadTimeout:  5 * time.Second,
			},
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Redis: RedisConfig{
				Host:   "localhost",
				Port:   6379,
				DB:     0,
				Prefix: "agroguardian",
			},
			SQLite: SQLiteConfig{
				Path: "./agroguardian.db",
			},
		},
		Engine: EngineConfig{
			WindowSize: 15,
		},
		Reports: ReportsConfig{
			Dir: "./high_risk_reports",
		},
		Assistant: AssistantConfig{
			KnowledgeDir: "./knowledge",
		},
	}
}
