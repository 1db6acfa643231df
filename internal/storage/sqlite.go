package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// SQLiteSink persiste o pipeline em um banco SQLite local, com uma tabela
// por camada encadeada por chaves estrangeiras lógicas
type SQLiteSink struct {
	db    *sql.DB
	mutex sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME,
	crop_type TEXT,
	temperature REAL,
	humidity REAL,
	rain_forecast REAL,
	soil_moisture REAL,
	wind_speed REAL,
	leaf_wetness REAL,
	soil_temperature REAL,
	soil_ph REAL,
	solar_radiation REAL
);
CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp ON sensor_readings(timestamp);
CREATE INDEX IF NOT EXISTS idx_sensor_readings_crop_type ON sensor_readings(crop_type);

CREATE TABLE IF NOT EXISTS processed_features (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME,
	sensor_reading_id INTEGER,
	crop_type TEXT,
	rolling_temp_avg REAL,
	rolling_humidity_avg REAL,
	rolling_leaf_wetness_avg REAL,
	humidity_alert TEXT,
	weather_condition TEXT,
	anomaly_score REAL
);
CREATE INDEX IF NOT EXISTS idx_processed_features_timestamp ON processed_features(timestamp);

CREATE TABLE IF NOT EXISTS disease_risks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME,
	feature_id INTEGER,
	crop_type TEXT,
	risk_score INTEGER,
	risk_level TEXT,
	predicted_disease TEXT,
	disease_confidence INTEGER,
	outbreak_eta_hours INTEGER,
	reasons TEXT,
	suggested_actions TEXT,
	alert_triggered TEXT
);
CREATE INDEX IF NOT EXISTS idx_disease_risks_timestamp ON disease_risks(timestamp);
CREATE INDEX IF NOT EXISTS idx_disease_risks_risk_level ON disease_risks(risk_level);
`

// NewSQLiteSink abre (ou cria) o banco no caminho informado e garante o schema
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir banco SQLite: %w", err)
	}

	// Escritas do pipeline são sequenciais; uma conexão evita SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao criar schema SQLite: %w", err)
	}

	logger.Infof("Banco SQLite aberto em %s", path)
	return &SQLiteSink{db: db}, nil
}

// StoreReading persiste uma leitura bruta e retorna o id gerado
func (s *SQLiteSink) StoreReading(event models.SensorEvent) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.Exec(
		`INSERT INTO sensor_readings
		(timestamp, crop_type, temperature, humidity, rain_forecast, soil_moisture,
		 wind_speed, leaf_wetness, soil_temperature, soil_ph, solar_radiation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp, event.CropType, event.Temperature, event.Humidity,
		event.RainForecast, event.SoilMoisture, event.WindSpeed, event.LeafWetness,
		event.SoilTemperature, event.SoilPH, event.SolarRadiation,
	)
	if err != nil {
		return "", fmt.Errorf("erro ao persistir leitura: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("erro ao obter id da leitura: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// StoreFeature persiste um snapshot de features vinculado à leitura de origem
func (s *SQLiteSink) StoreFeature(snap models.FeatureSnapshot, readingRef string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var readingID interface{}
	if id, err := strconv.ParseInt(readingRef, 10, 64); err == nil {
		readingID = id
	}

	result, err := s.db.Exec(
		`INSERT INTO processed_features
		(timestamp, sensor_reading_id, crop_type, rolling_temp_avg, rolling_humidity_avg,
		 rolling_leaf_wetness_avg, humidity_alert, weather_condition, anomaly_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, readingID, snap.CropType, snap.RollingTempAvg,
		snap.RollingHumidityAvg, snap.RollingLeafWetnessAvg,
		strconv.FormatBool(snap.HumidityAlert), snap.WeatherCondition, snap.AnomalyScore,
	)
	if err != nil {
		return "", fmt.Errorf("erro ao persistir features: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("erro ao obter id das features: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// StoreRisk persiste uma avaliação de risco vinculada ao snapshot de origem
func (s *SQLiteSink) StoreRisk(assessment models.RiskAssessment, cropType, featureRef string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var featureID interface{}
	if id, err := strconv.ParseInt(featureRef, 10, 64); err == nil {
		featureID = id
	}

	reasons, err := json.Marshal(assessment.Reasons)
	if err != nil {
		return fmt.Errorf("erro ao serializar razões: %w", err)
	}
	actions, err := json.Marshal(assessment.SuggestedActions)
	if err != nil {
		return fmt.Errorf("erro ao serializar ações: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO disease_risks
		(timestamp, feature_id, crop_type, risk_score, risk_level, predicted_disease,
		 disease_confidence, outbreak_eta_hours, reasons, suggested_actions, alert_triggered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), featureID, cropType, assessment.RiskScore, assessment.RiskLevel,
		assessment.PredictedDisease, assessment.DiseaseConfidence, assessment.OutbreakETAHours,
		string(reasons), string(actions), strconv.FormatBool(assessment.AlertTriggered),
	)
	if err != nil {
		return fmt.Errorf("erro ao persistir avaliação de risco: %w", err)
	}
	return nil
}

// CountReadings retorna o total de leituras persistidas
func (s *SQLiteSink) CountReadings() (int64, error) {
	return s.countRows("sensor_readings")
}

// CountFeatures retorna o total de snapshots de features persistidos
func (s *SQLiteSink) CountFeatures() (int64, error) {
	return s.countRows("processed_features")
}

// CountRisks retorna o total de avaliações de risco persistidas
func (s *SQLiteSink) CountRisks() (int64, error) {
	return s.countRows("disease_risks")
}

func (s *SQLiteSink) countRows(table string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0, fmt.Errorf("erro ao contar registros de %s: %w", table, err)
	}
	return count, nil
}

// Close fecha a conexão com o banco
func (s *SQLiteSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("erro ao fechar banco SQLite: %w", err)
	}
	logger.Info("Banco SQLite fechado")
	return nil
}
