package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"agro_go/pkg/logger"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server    ServerConfig    `json:"server"`
	Stream    StreamConfig    `json:"stream"`
	Storage   StorageConfig   `json:"storage"`
	Engine    EngineConfig    `json:"engine"`
	Reports   ReportsConfig   `json:"reports"`
	Assistant AssistantConfig `json:"assistant"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
	StaticDir       string        `json:"staticDir"`
}

// StreamConfig seleciona e configura a fonte de eventos de sensores
type StreamConfig struct {
	// Fonte ativa: "mqtt", "http", "file" ou "plc"
	Source string     `json:"source"`
	MQTT   MQTTConfig `json:"mqtt"`
	HTTP   HTTPConfig `json:"http"`
	File   FileConfig `json:"file"`
	PLC    PLCConfig  `json:"plc"`
}

// MQTTConfig contém configurações do broker MQTT
type MQTTConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"clientId"`
	Username string `json:"username"`
	Password string `json:"password"`
	QoS      byte   `json:"qos"`
}

// HTTPConfig contém configurações da fonte HTTP de polling
type HTTPConfig struct {
	Endpoint     string        `json:"endpoint"`
	PollInterval time.Duration `json:"pollInterval"`
}

// FileConfig contém configurações da fonte de arquivo
type FileConfig struct {
	Path string `json:"path"`
}

// PLCConfig contém configurações para leitura de sensores via PLC S7
type PLCConfig struct {
	Host         string        `json:"host"`
	Rack         int           `json:"rack"`
	Slot         int           `json:"slot"`
	DBNumber     int           `json:"dbNumber"`
	StartOffset  int           `json:"startOffset"`
	CropType     string        `json:"cropType"`
	ReadInterval time.Duration `json:"readInterval"`
	ReadTimeout  time.Duration `json:"readTimeout"`
}

// StorageConfig seleciona e configura a persistência do pipeline
type StorageConfig struct {
	// Backend ativo: "redis", "sqlite" ou "none"
	Backend string       `json:"backend"`
	Redis   RedisConfig  `json:"redis"`
	SQLite  SQLiteConfig `json:"sqlite"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// SQLiteConfig contém configurações do banco SQLite
type SQLiteConfig struct {
	Path string `json:"path"`
}

// EngineConfig contém configurações do motor de features
type EngineConfig struct {
	WindowSize int `json:"windowSize"`
}

// ReportsConfig contém configurações dos relatórios de risco alto
type ReportsConfig struct {
	Dir string `json:"dir"`
}

// AssistantConfig contém configurações do assistente agronômico
type AssistantConfig struct {
	KnowledgeDir string `json:"knowledgeDir"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	// Carregar variáveis de um arquivo .env, se existir
	if err := godotenv.Load(); err == nil {
		logger.Debug("Arquivo .env carregado")
	}

	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	config.Server.Port = getEnvInt("SERVER_PORT", config.Server.Port)
	config.Server.StaticDir = getEnv("STATIC_DIR", config.Server.StaticDir)

	config.Stream.Source = getEnv("STREAM_SOURCE", config.Stream.Source)
	config.Stream.MQTT.Broker = getEnv("MQTT_BROKER", config.Stream.MQTT.Broker)
	config.Stream.MQTT.Topic = getEnv("MQTT_TOPIC", config.Stream.MQTT.Topic)
	config.Stream.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", config.Stream.MQTT.ClientID)
	config.Stream.MQTT.Username = getEnv("MQTT_USERNAME", config.Stream.MQTT.Username)
	config.Stream.MQTT.Password = getEnv("MQTT_PASSWORD", config.Stream.MQTT.Password)
	config.Stream.HTTP.Endpoint = getEnv("HTTP_ENDPOINT", config.Stream.HTTP.Endpoint)
	config.Stream.HTTP.PollInterval = getEnvDuration("HTTP_POLL_INTERVAL", config.Stream.HTTP.PollInterval)
	config.Stream.File.Path = getEnv("FILE_STREAM_PATH", config.Stream.File.Path)
	config.Stream.PLC.Host = getEnv("PLC_HOST", config.Stream.PLC.Host)
	config.Stream.PLC.Rack = getEnvInt("PLC_RACK", config.Stream.PLC.Rack)
	config.Stream.PLC.Slot = getEnvInt("PLC_SLOT", config.Stream.PLC.Slot)
	config.Stream.PLC.DBNumber = getEnvInt("PLC_DB_NUMBER", config.Stream.PLC.DBNumber)
	config.Stream.PLC.CropType = getEnv("PLC_CROP_TYPE", config.Stream.PLC.CropType)
	config.Stream.PLC.ReadInterval = getEnvDuration("PLC_READ_INTERVAL", config.Stream.PLC.ReadInterval)

	config.Storage.Backend = getEnv("STORAGE_BACKEND", config.Storage.Backend)
	config.Storage.Redis.Host = getEnv("REDIS_HOST", config.Storage.Redis.Host)
	config.Storage.Redis.Port = getEnvInt("REDIS_PORT", config.Storage.Redis.Port)
	config.Storage.Redis.Password = getEnv("REDIS_PASSWORD", config.Storage.Redis.Password)
	config.Storage.Redis.DB = getEnvInt("REDIS_DB", config.Storage.Redis.DB)
	config.Storage.Redis.Prefix = getEnv("REDIS_PREFIX", config.Storage.Redis.Prefix)
	config.Storage.SQLite.Path = getEnv("SQLITE_PATH", config.Storage.SQLite.Path)

	config.Engine.WindowSize = getEnvInt("WINDOW_SIZE", config.Engine.WindowSize)
	config.Reports.Dir = getEnv("REPORTS_DIR", config.Reports.Dir)
	config.Assistant.KnowledgeDir = getEnv("KNOWLEDGE_DIR", config.Assistant.KnowledgeDir)
}

// getEnv retorna o valor da variável de ambiente ou o padrão
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvInt retorna o valor inteiro da variável de ambiente ou o padrão
func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logger.Warnf("Valor inválido para %s: %s", key, value)
	}
	return fallback
}

// getEnvDuration retorna a duração da variável de ambiente ou o padrão
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		logger.Warnf("Valor inválido para %s: %s", key, value)
	}
	return fallback
}
